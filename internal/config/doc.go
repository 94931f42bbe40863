// Package config provides configuration parsing for kosmo projects.
//
// The configuration is stored in kosmo.json at the project root.
// This package handles loading and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "sourceFolder": "src",
//	  "framework": "solid",
//	  "baseurl": "/",
//	  "apiurl": "/api",
//	  "refineTypeName": "TRefine",
//	  "generators": [
//	    { "module": "api", "config": { "alias": { "/feed.xml": "rss" } } },
//	    { "module": "fetch" }
//	  ],
//	  "formatters": [
//	    { "module": "trim-trailing-space" }
//	  ],
//	  "dev": {
//	    "host": "localhost",
//	    "port": 4000,
//	    "isolation": "process",
//	    "watch": { "delay": 1000 },
//	    "ignore": ["**/*.test.ts"],
//	    "metrics": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.Paths().Resolve(paths.API))
package config
