// Package shell renders activation scripts for an environment descriptor and
// runs commands inside it.
package shell

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/arc-language/shellenv/pkg/env"
)

// Format is an activation script flavour
type Format string

const (
	Bash Format = "bash"
	Zsh  Format = "zsh"
	Fish Format = "fish"
	JSON Format = "json"
)

// ActiveVar is exported by every activation script
const ActiveVar = "SHELLENV_ACTIVE"

// Formats lists the supported formats
func Formats() []Format {
	return []Format{Bash, Zsh, Fish, JSON}
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s (supported: bash, zsh, fish, json)", name)
}

// Detect picks the script format for a login shell path such as $SHELL.
// Unknown shells get bash syntax.
func Detect(shellPath string) Format {
	switch filepath.Base(shellPath) {
	case "zsh":
		return Zsh
	case "fish":
		return Fish
	default:
		return Bash
	}
}

// WriteScript writes the activation script for desc in the given format
func WriteScript(w io.Writer, desc *env.Descriptor, format Format) error {
	switch format {
	case Bash, Zsh:
		return writePOSIX(w, desc, format)
	case Fish:
		return writeFish(w, desc)
	case JSON:
		return writeJSON(w, desc)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Script returns the activation script as a string
func Script(desc *env.Descriptor, format Format) (string, error) {
	var b strings.Builder
	if err := WriteScript(&b, desc, format); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writePOSIX(w io.Writer, desc *env.Descriptor, format Format) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# shellenv environment for %s\n", format)
	fmt.Fprintf(&b, "# eval \"$(shellenv env --format %s)\"\n", format)
	fmt.Fprintf(&b, "if [ -z \"${%s:-}\" ]; then export %s=\"${PATH:-}\"; fi\n", ActiveVar, OldPathVar)
	fmt.Fprintf(&b, "if [ -z \"${%s:-}\" ]; then export %s=\"${%s:-}\"; fi\n", ActiveVar, OldPkgConfigPathVar, env.PkgConfigPathVar)

	names := make([]string, len(desc.Variables))
	for i, v := range desc.Variables {
		fmt.Fprintf(&b, "export %s=%s\n", v.Name, shellescape.Quote(v.Value))
		names[i] = v.Name
	}
	fmt.Fprintf(&b, "export %s=%s\n", VarsVar, shellescape.Quote(strings.Join(names, " ")))

	if dirs := desc.SearchPath(); len(dirs) > 0 {
		fmt.Fprintf(&b, "export PATH=%s${%s:+:$%s}\n", strings.Join(quoteAll(dirs, shellescape.Quote), ":"), OldPathVar, OldPathVar)
	}

	if dirs := desc.PkgConfigPath(); len(dirs) > 0 {
		fmt.Fprintf(&b, "export %s=%s${%s:+:$%s}\n", env.PkgConfigPathVar, strings.Join(quoteAll(dirs, shellescape.Quote), ":"), OldPkgConfigPathVar, OldPkgConfigPathVar)
	}

	fmt.Fprintf(&b, "export %s=1\n", ActiveVar)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFish(w io.Writer, desc *env.Descriptor) error {
	var b strings.Builder

	b.WriteString("# shellenv environment for fish\n")
	b.WriteString("# shellenv env --format fish | source\n")
	fmt.Fprintf(&b, "if not set -q %s; set -gx %s $PATH; end\n", ActiveVar, OldPathVar)
	fmt.Fprintf(&b, "if not set -q %s; set -gx %s $%s; end\n", ActiveVar, OldPkgConfigPathVar, env.PkgConfigPathVar)

	names := make([]string, len(desc.Variables))
	for i, v := range desc.Variables {
		fmt.Fprintf(&b, "set -gx %s %s\n", v.Name, fishQuote(v.Value))
		names[i] = v.Name
	}
	fmt.Fprintf(&b, "set -gx %s %s\n", VarsVar, strings.Join(names, " "))

	if dirs := desc.SearchPath(); len(dirs) > 0 {
		fmt.Fprintf(&b, "set -gx PATH %s $%s\n", strings.Join(quoteAll(dirs, fishQuote), " "), OldPathVar)
	}

	if dirs := desc.PkgConfigPath(); len(dirs) > 0 {
		fmt.Fprintf(&b, "set -gx %s %s $%s\n", env.PkgConfigPathVar, strings.Join(quoteAll(dirs, fishQuote), " "), OldPkgConfigPathVar)
	}

	fmt.Fprintf(&b, "set -gx %s 1\n", ActiveVar)

	_, err := io.WriteString(w, b.String())
	return err
}

func quoteAll(dirs []string, quote func(string) string) []string {
	quoted := make([]string, len(dirs))
	for i, dir := range dirs {
		quoted[i] = quote(dir)
	}
	return quoted
}

// fishQuote single-quotes s for fish, where \ and ' are the only escapes
func fishQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

type jsonPackage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type jsonEnvironment struct {
	Packages      []jsonPackage     `json:"packages"`
	Variables     map[string]string `json:"variables"`
	Path          []string          `json:"path"`
	PkgConfigPath []string          `json:"pkg_config_path"`
}

func writeJSON(w io.Writer, desc *env.Descriptor) error {
	doc := jsonEnvironment{
		Packages:      make([]jsonPackage, 0, len(desc.Packages)),
		Variables:     desc.Map(),
		Path:          desc.SearchPath(),
		PkgConfigPath: desc.PkgConfigPath(),
	}
	if doc.Path == nil {
		doc.Path = []string{}
	}
	if doc.PkgConfigPath == nil {
		doc.PkgConfigPath = []string{}
	}
	for _, ref := range desc.Packages {
		doc.Packages = append(doc.Packages, jsonPackage{Name: ref.Name, Path: ref.Path})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
