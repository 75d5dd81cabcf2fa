package driver

// Config encapsulates options which can affect compilation, analogous to
// the teacher's corset.CompilationConfig.
type Config struct {
	// Stdlib includes a small embedded prelude of builtin-function stubs
	// ahead of the user's own source files, mirroring go-corset's
	// `//go:embed stdlib.lisp` convention.
	Stdlib bool
	// Strict promotes unused-symbol warnings (§7, "semantic... unused
	// symbol (warning only)") to fatal errors.
	Strict bool
	// Debug records the --debug command-line flag. No compilation phase
	// reads it: bounds checks are emitted in generated IR whether or not it
	// is set.
	Debug bool
}
