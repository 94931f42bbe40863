package signature

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/pkg/route"
)

// HTTP methods recognised in the handler factory.
var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

var (
	importStmt    = regexp.MustCompile(`^import\s+(type\s+)?([\s\S]*?)\s*from\s*["']([^"']+)["']$`)
	exportFrom    = regexp.MustCompile(`^export\s+(type\s+)?\{([^}]*)\}\s*(?:from\s*["']([^"']+)["'])?$`)
	typeAlias     = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?type\s+([A-Za-z_$][\w$]*)`)
	interfaceDecl = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?interface\s+([A-Za-z_$][\w$]*)`)
	enumDecl      = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+([A-Za-z_$][\w$]*)`)
	defineRoute   = regexp.MustCompile(`\bdefineRoute\b`)
	handlerArgs   = regexp.MustCompile(`^\(\s*\(\s*\{([^}]*)\}\s*\)\s*=>`)
	specifiers    = regexp.MustCompile(`(?m)(?:^|[\s;])(?:import|export)\b[^;]*?from\s*["']([^"']+)["']|^\s*import\s*["']([^"']+)["']`)
)

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	// RefineTypeName is the name of the refinement wrapper type
	RefineTypeName string

	// Aliases maps import prefixes to absolute directories, e.g.
	// "@/" → "/app/src/"
	Aliases map[string]string
}

// Scanner is the default Extractor.
type Scanner struct {
	opts ScannerOptions

	mu    sync.Mutex
	files map[string]cachedFile
}

type cachedFile struct {
	modTime time.Time
	size    int64
	src     *source
}

// NewScanner returns a Scanner.
func NewScanner(opts ScannerOptions) *Scanner {
	if opts.RefineTypeName == "" {
		opts.RefineTypeName = "TRefine"
	}
	return &Scanner{opts: opts, files: make(map[string]cachedFile)}
}

// Refresh implements Extractor.
func (s *Scanner) Refresh(file string) {
	s.mu.Lock()
	delete(s.files, file)
	s.mu.Unlock()
}

func (s *Scanner) load(file string) (*source, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cached, ok := s.files[file]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.src, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	src := newSource(string(data))

	s.mu.Lock()
	s.files[file] = cachedFile{modTime: info.ModTime(), size: info.Size(), src: src}
	s.mu.Unlock()
	return src, nil
}

// ResolveRouteSignature implements Extractor.
func (s *Scanner) ResolveRouteSignature(ctx context.Context, target Target, opts Options) (*Signature, error) {
	src, err := s.load(target.FileFullpath)
	if err != nil {
		return nil, errors.New("E201").WithFile(target.FileFullpath).Wrap(err)
	}

	sig := &Signature{
		TypeDeclarations:  []route.TypeDeclaration{},
		ParamsRefinements: []Refinement{},
		Methods:           []string{},
		PayloadTypes:      []route.PayloadType{},
		ResponseTypes:     []route.ResponseType{},
		ReferencedFiles:   []string{},
	}

	aliases := map[string]string{}
	found := false

	for _, st := range src.statements() {
		masked := strings.TrimSpace(src.masked(st))
		text := src.cut(st)

		switch {
		case strings.HasPrefix(masked, "import"):
			sig.TypeDeclarations = append(sig.TypeDeclarations, importDeclarations(text, opts.RelPath)...)
		case strings.HasPrefix(masked, "export") && defineRoute.MatchString(masked):
			if err := s.parseDefineRoute(src, st, target, sig, aliases); err != nil {
				return nil, err
			}
			found = true
		case exportFrom.MatchString(clean(text)):
			sig.TypeDeclarations = append(sig.TypeDeclarations, exportDeclarations(text, opts.RelPath)...)
		default:
			if d, name, body, ok := localDeclaration(text); ok {
				sig.TypeDeclarations = append(sig.TypeDeclarations, d)
				if body != "" {
					aliases[name] = body
				}
			}
		}
	}

	if !found {
		return nil, errors.New("E201").
			WithFile(target.FileFullpath).
			WithSuggestion("Default-export a defineRoute(({ GET }) => [...]) call")
	}

	// payload optionality can depend on aliases declared after the export
	for i := range sig.PayloadTypes {
		sig.PayloadTypes[i].IsOptional = allOptional(sig.PayloadTypes[i].Text, aliases)
	}

	if opts.WithReferencedFiles {
		refs, err := s.referencedFiles(ctx, target.FileFullpath)
		if err != nil {
			return nil, err
		}
		sig.ReferencedFiles = refs
	}

	return sig, nil
}

func (s *Scanner) parseDefineRoute(src *source, st span, target Target, sig *Signature, aliases map[string]string) error {
	fail := func(detail string) error {
		return errors.New("E201").WithFile(target.FileFullpath).WithDetail(detail)
	}

	loc := defineRoute.FindStringIndex(src.masked(st))
	i := src.skipSpace(st.start + loc[1])

	if i < len(src.mask) && src.mask[i] == '<' {
		end, args, ok := src.closeAngle(i)
		if !ok {
			return fail("unbalanced defineRoute type arguments")
		}
		if len(args) > 0 {
			sig.ParamsRefinements = s.refinements(src, args[0])
		}
		i = src.skipSpace(end)
	}

	if i >= len(src.mask) || src.mask[i] != '(' {
		return fail("defineRoute must be called with a handler factory")
	}
	callEnd, ok := src.closeBracket(i)
	if !ok {
		return fail("unbalanced defineRoute call")
	}

	call := span{i, callEnd}
	m := handlerArgs.FindStringSubmatchIndex(src.masked(call))
	if m == nil {
		return fail("handler factory must destructure methods, e.g. ({ GET, POST }) => [...]")
	}

	names := src.text[call.start+m[2] : call.start+m[3]]
	body := span{call.start + m[1], call.end}

	for _, name := range strings.Split(names, ",") {
		key := strings.TrimSpace(strings.SplitN(name, ":", 2)[0])
		if !slices.Contains(httpMethods, key) || slices.Contains(sig.Methods, key) {
			continue
		}
		sig.Methods = append(sig.Methods, key)
		s.methodTypes(src, body, key, sig)
	}

	return nil
}

func (s *Scanner) refinements(src *source, arg span) []Refinement {
	out := []Refinement{}

	start := src.skipSpace(arg.start)
	if start >= arg.end || src.mask[start] != '[' {
		return out
	}
	end, ok := src.closeBracket(start)
	if !ok {
		return out
	}

	prefix := s.opts.RefineTypeName + "<"
	for i, el := range src.splitTopLevel(span{start + 1, end - 1}) {
		full := stripComments(src.text[el.start:el.end])
		text := full
		if strings.HasPrefix(full, prefix) {
			inner := newSource(full)
			if _, args, ok := inner.closeAngle(len(s.opts.RefineTypeName)); ok && len(args) > 0 {
				text = strings.TrimSpace(full[args[0].start:args[0].end])
			}
		}
		out = append(out, Refinement{Index: i, Text: text, Full: full})
	}
	return out
}

func (s *Scanner) methodTypes(src *source, body span, method string, sig *Signature) {
	re := regexp.MustCompile(`\b` + method + `\s*<`)
	loc := re.FindStringIndex(src.masked(body))
	if loc == nil {
		return
	}

	_, args, ok := src.closeAngle(body.start + loc[1] - 1)
	if !ok {
		return
	}

	var responseID string
	if len(args) > 1 {
		raw := src.text[args[1].start:args[1].end]
		if text := stripComments(raw); text != "" {
			responseID = "ResponseT_" + method
			sig.ResponseTypes = append(sig.ResponseTypes, route.ResponseType{
				ID:             responseID,
				Method:         method,
				SkipValidation: strings.Contains(raw, "@skip-validation"),
				Text:           text,
			})
		}
	}

	if len(args) > 0 {
		raw := src.text[args[0].start:args[0].end]
		text := stripComments(raw)
		if text != "" && text != "never" && text != "undefined" {
			sig.PayloadTypes = append(sig.PayloadTypes, route.PayloadType{
				ID:             "PayloadT_" + method,
				ResponseTypeID: responseID,
				Method:         method,
				SkipValidation: strings.Contains(raw, "@skip-validation"),
				Text:           text,
			})
		}
	}
}

// referencedFiles follows relative and aliased imports from file and
// returns every reachable file except file itself.
func (s *Scanner) referencedFiles(ctx context.Context, file string) ([]string, error) {
	seen := map[string]bool{file: true}
	queue := []string{file}
	var out []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		src, err := s.load(current)
		if err != nil {
			continue
		}

		for _, m := range specifiers.FindAllStringSubmatchIndex(string(src.mask), -1) {
			spec := submatch(src.text, m, 1)
			if spec == "" {
				spec = submatch(src.text, m, 2)
			}
			dep, ok := s.resolveSpecifier(filepath.Dir(current), spec)
			if !ok || seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}

	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func submatch(text string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

func (s *Scanner) resolveSpecifier(dir, spec string) (string, bool) {
	var base string
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		base = filepath.Join(dir, filepath.FromSlash(spec))
	default:
		for prefix, target := range s.opts.Aliases {
			if strings.HasPrefix(spec, prefix) {
				base = filepath.Join(target, filepath.FromSlash(strings.TrimPrefix(spec, prefix)))
				break
			}
		}
	}
	if base == "" {
		return "", false
	}

	candidates := []string{base, base + ".ts", base + ".tsx", base + ".d.ts",
		filepath.Join(base, "index.ts"), filepath.Join(base, "index.tsx")}
	if ext := filepath.Ext(base); ext == ".js" || ext == ".jsx" {
		trimmed := strings.TrimSuffix(base, ext)
		candidates = append([]string{trimmed + ".ts", trimmed + ".tsx"}, candidates...)
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}
