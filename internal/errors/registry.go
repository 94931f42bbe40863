package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// CLI Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryCLI,
		Message:  "Unknown command",
		Detail:   "The command is not recognized. Run 'kosmo --help' for a list of commands.",
		DocURL:   "https://kosmojs.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command line flag has a value that cannot be used.",
		DocURL:   "https://kosmojs.dev/docs/errors/E101",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid kosmo.json",
		Detail:   "The configuration file contains invalid JSON.",
		DocURL:   "https://kosmojs.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Unknown framework",
		Detail:   "The framework must be one of react, solid, vue or svelte.",
		DocURL:   "https://kosmojs.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
		DocURL:   "https://kosmojs.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Source folder not found",
		Detail:   "The configured sourceFolder does not exist under the project root.",
		DocURL:   "https://kosmojs.dev/docs/errors/E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Dev address unavailable",
		Detail:   "The status server could not listen on dev.host:dev.port.",
		DocURL:   "https://kosmojs.dev/docs/errors/E124",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "kosmo.json not found",
		Detail:   "No configuration file was found in the project root.",
		DocURL:   "https://kosmojs.dev/docs/errors/E141",
	},

	// ============================================
	// Resolve Errors (E200-E209)
	// ============================================

	"E200": {
		Category: CategoryResolve,
		Message:  "Route discovery failed",
		Detail:   "The source folder could not be scanned for route files.",
		DocURL:   "https://kosmojs.dev/docs/errors/E200",
	},
	"E201": {
		Category: CategoryResolve,
		Message:  "Route signature extraction failed",
		Detail:   "The route file does not export a recognizable defineRoute signature.",
		DocURL:   "https://kosmojs.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryResolve,
		Message:  "Type resolution failed",
		Detail:   "The route types could not be flattened by the configured type resolver.",
		DocURL:   "https://kosmojs.dev/docs/errors/E202",
	},
	"E203": {
		Category: CategoryResolve,
		Message:  "Types artifact could not be written",
		Detail:   "The generated types.ts for the route could not be rendered or written.",
		DocURL:   "https://kosmojs.dev/docs/errors/E203",
	},
	"E204": {
		Category: CategoryResolve,
		Message:  "Route resolution failed",
		Detail:   "One or more routes could not be resolved.",
		DocURL:   "https://kosmojs.dev/docs/errors/E204",
	},

	// ============================================
	// Cache Errors (E210-E219)
	// ============================================

	"E210": {
		Category: CategoryCache,
		Message:  "Cache record could not be written",
		Detail:   "The route cache.json could not be persisted. The route will be re-resolved on the next run.",
		DocURL:   "https://kosmojs.dev/docs/errors/E210",
	},
	"E211": {
		Category: CategoryCache,
		Message:  "Cache record could not be encoded",
		DocURL:   "https://kosmojs.dev/docs/errors/E211",
	},

	// ============================================
	// Generator Errors (E220-E229)
	// ============================================

	"E220": {
		Category: CategoryGenerator,
		Message:  "Unknown generator module",
		Detail:   "No generator is registered under this module name.",
		DocURL:   "https://kosmojs.dev/docs/errors/E220",
	},
	"E221": {
		Category: CategoryGenerator,
		Message:  "Generator initialization failed",
		DocURL:   "https://kosmojs.dev/docs/errors/E221",
	},
	"E222": {
		Category: CategoryGenerator,
		Message:  "Generator failed",
		Detail:   "A generator watch handler returned an error.",
		DocURL:   "https://kosmojs.dev/docs/errors/E222",
	},
	"E223": {
		Category: CategoryGenerator,
		Message:  "Generator panicked",
		DocURL:   "https://kosmojs.dev/docs/errors/E223",
	},
	"E224": {
		Category: CategoryGenerator,
		Message:  "Unknown formatter module",
		Detail:   "No formatter is registered under this module name.",
		DocURL:   "https://kosmojs.dev/docs/errors/E224",
	},
	"E225": {
		Category: CategoryGenerator,
		Message:  "Template rendering failed",
		DocURL:   "https://kosmojs.dev/docs/errors/E225",
	},
	"E226": {
		Category: CategoryGenerator,
		Message:  "Generated file could not be written",
		DocURL:   "https://kosmojs.dev/docs/errors/E226",
	},
	"E227": {
		Category: CategoryGenerator,
		Message:  "Unknown template",
		Detail:   "No built-in template is registered under this name.",
		DocURL:   "https://kosmojs.dev/docs/errors/E227",
	},

	// ============================================
	// Worker Errors (E230-E239)
	// ============================================

	"E230": {
		Category: CategoryWorker,
		Message:  "Worker failed to start",
		DocURL:   "https://kosmojs.dev/docs/errors/E230",
	},
	"E231": {
		Category: CategoryWorker,
		Message:  "Invalid worker message",
		Detail:   "The worker sent a message that is not part of the protocol.",
		DocURL:   "https://kosmojs.dev/docs/errors/E231",
	},
	"E232": {
		Category: CategoryWorker,
		Message:  "Worker exited",
		Detail:   "The worker stopped. It is not restarted; restart the dev session to recover.",
		DocURL:   "https://kosmojs.dev/docs/errors/E232",
	},
	"E233": {
		Category: CategoryWorker,
		Message:  "Worker panicked",
		DocURL:   "https://kosmojs.dev/docs/errors/E233",
	},

	// ============================================
	// Watcher Errors (E240-E249)
	// ============================================

	"E240": {
		Category: CategoryWatcher,
		Message:  "File watcher failed",
		DocURL:   "https://kosmojs.dev/docs/errors/E240",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
