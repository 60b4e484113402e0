package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagFloat
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool     // accepts file arguments
	FilePattern string   // glob for file arguments (e.g., "*.svg")
	ArgWords    []string // fixed argument words (e.g., shell names)
}

// completionMeta holds completion-specific metadata for flags.
// This is the ONLY place where completion hints are defined.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"format": {Values: []string{"png", "jpeg", "webp"}},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},

	// Directory flags
	"output": {IsDir: true},
}

// buildConvertFlagSet creates a FlagSet with all convert command flags.
// This reuses the same flag registration as parseConvertFlags.
func buildConvertFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent conversions (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "batch timeout (e.g., 30s, 2m)")

	// Flag groups - same as parseConvertFlags
	addCommonFlags(fs, &f.common)
	addSizeFlags(fs, &f.size)
	addRasterFlags(fs, &f.raster)

	return fs
}

// buildDoctorFlagSet creates a FlagSet with all doctor command flags.
func buildDoctorFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	var jsonOutput, noProbe bool
	fs.BoolVar(&jsonOutput, "json", false, "output diagnostics as JSON")
	fs.BoolVar(&noProbe, "no-probe", false, "skip the end-to-end render probe")
	return fs
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		// Determine base type from pflag type
		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		default:
			fd.Type = flagString
		}

		// Override type based on completion metadata
		if meta, ok := flagCompletionMeta[f.Name]; ok {
			if len(meta.Values) > 0 {
				fd.Type = flagEnum
				fd.Values = meta.Values
			} else if meta.FileGlob != "" {
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			} else if meta.IsDir {
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets - single source of truth.
func getCommands() []commandDef {
	convertFlags := extractFlagsFromFlagSet(buildConvertFlagSet())
	doctorFlags := extractFlagsFromFlagSet(buildDoctorFlagSet())

	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Convert SVG files to raster images",
			Flags:       convertFlags,
			TakesFiles:  true,
			FilePattern: "*.svg",
		},
		{
			Name:  "doctor",
			Desc:  "Diagnose rendering environment issues",
			Flags: doctorFlags,
		},
		{
			Name:  "version",
			Desc:  "Show version information",
			Flags: nil,
		},
		{
			Name:     "help",
			Desc:     "Show help for a command",
			Flags:    nil,
			ArgWords: []string{"convert", "doctor", "version", "help", "completion"},
		},
		{
			Name:     "completion",
			Desc:     "Generate shell completion script",
			Flags:    nil,
			ArgWords: []string{"bash", "zsh", "fish", "powershell"},
		},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	case ShellPowerShell:
		return generatePowerShell(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}

	shell := Shell(args[0])
	return GenerateCompletion(env.Stdout, shell)
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: svg2png completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(svg2png completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(svg2png completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    svg2png completion fish > ~/.config/fish/completions/svg2png.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    svg2png completion powershell | Out-String | Invoke-Expression")
}

// flagWords lists all flag spellings for word-list completion.
func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

// globAlternation converts a comma-separated glob list ("*.yaml,*.yml")
// into a single alternation pattern ("*.(yaml|yml)").
func globAlternation(pattern string) string {
	globs := strings.Split(pattern, ",")
	if len(globs) == 1 {
		return globs[0]
	}
	exts := make([]string, 0, len(globs))
	for _, g := range globs {
		exts = append(exts, strings.TrimPrefix(g, "*."))
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

// generateBash writes the bash completion script.
func generateBash(w io.Writer) error {
	commands := getCommands()

	var b strings.Builder
	b.WriteString("# bash completion for svg2png\n")
	b.WriteString("# Install: eval \"$(svg2png completion bash)\"\n\n")
	b.WriteString("_svg2png_completions() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")

	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name)
	}
	fmt.Fprintf(&b, "    local commands=\"%s\"\n\n", strings.Join(names, " "))

	b.WriteString("    if [ \"$COMP_CWORD\" -eq 1 ]; then\n")
	b.WriteString("        COMPREPLY=($(compgen -W \"$commands\" -- \"$cur\"))\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, cmd := range commands {
		fmt.Fprintf(&b, "    %s)\n", cmd.Name)
		writeBashValueCases(&b, cmd.Flags)
		if len(cmd.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", flagWords(cmd.Flags))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case cmd.TakesFiles:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -f -X '!%s' -- \"$cur\") $(compgen -d -- \"$cur\"))\n",
				globAlternation(cmd.FilePattern))
		case len(cmd.ArgWords) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n",
				strings.Join(cmd.ArgWords, " "))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _svg2png_completions svg2png\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeBashValueCases emits a case block completing values for flags
// that take enum, file, or directory arguments.
func writeBashValueCases(b *strings.Builder, flags []flagDef) {
	var cases strings.Builder
	for _, f := range flags {
		pattern := "--" + f.Long
		if f.Short != "" {
			pattern += "|-" + f.Short
		}
		switch f.Type {
		case flagEnum:
			fmt.Fprintf(&cases, "        %s)\n", pattern)
			fmt.Fprintf(&cases, "            COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", strings.Join(f.Values, " "))
			cases.WriteString("            return\n            ;;\n")
		case flagFile:
			fmt.Fprintf(&cases, "        %s)\n", pattern)
			fmt.Fprintf(&cases, "            COMPREPLY=($(compgen -f -X '!%s' -- \"$cur\"))\n", globAlternation(f.FileGlob))
			cases.WriteString("            return\n            ;;\n")
		case flagDir:
			fmt.Fprintf(&cases, "        %s)\n", pattern)
			cases.WriteString("            COMPREPLY=($(compgen -d -- \"$cur\"))\n")
			cases.WriteString("            return\n            ;;\n")
		}
	}
	if cases.Len() == 0 {
		return
	}
	b.WriteString("        case \"$prev\" in\n")
	b.WriteString(cases.String())
	b.WriteString("        esac\n")
}

// generateZsh writes the zsh completion script.
func generateZsh(w io.Writer) error {
	commands := getCommands()

	var b strings.Builder
	b.WriteString("#compdef svg2png\n")
	b.WriteString("# zsh completion for svg2png\n")
	b.WriteString("# Install: eval \"$(svg2png completion zsh)\"\n\n")
	b.WriteString("_svg2png() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "        '%s:%s'\n", cmd.Name, cmd.Desc)
	}
	b.WriteString("    )\n\n")
	b.WriteString("    _arguments -C \\\n")
	b.WriteString("        '1: :->command' \\\n")
	b.WriteString("        '*:: :->args'\n\n")
	b.WriteString("    case \"$state\" in\n")
	b.WriteString("    command)\n")
	b.WriteString("        _describe -t commands 'svg2png command' commands\n")
	b.WriteString("        ;;\n")
	b.WriteString("    args)\n")
	b.WriteString("        case \"${words[1]}\" in\n")

	for _, cmd := range commands {
		fmt.Fprintf(&b, "        %s)\n", cmd.Name)
		specs := zshArgSpecs(cmd)
		if len(specs) == 0 {
			b.WriteString("            ;;\n")
			continue
		}
		b.WriteString("            _arguments \\\n")
		for i, spec := range specs {
			if i < len(specs)-1 {
				fmt.Fprintf(&b, "                %s \\\n", spec)
			} else {
				fmt.Fprintf(&b, "                %s\n", spec)
			}
		}
		b.WriteString("            ;;\n")
	}

	b.WriteString("        esac\n")
	b.WriteString("        ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("_svg2png \"$@\"\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshArgSpecs builds _arguments specs for a command's flags and arguments.
func zshArgSpecs(cmd commandDef) []string {
	var specs []string
	for _, f := range cmd.Flags {
		specs = append(specs, zshFlagSpec(f))
	}
	if cmd.TakesFiles {
		specs = append(specs, fmt.Sprintf(`'*:file:_files -g "%s"'`, globAlternation(cmd.FilePattern)))
	} else if len(cmd.ArgWords) > 0 {
		specs = append(specs, fmt.Sprintf(`'1:argument:(%s)'`, strings.Join(cmd.ArgWords, " ")))
	}
	return specs
}

// zshFlagSpec builds one _arguments spec for a flag.
func zshFlagSpec(f flagDef) string {
	var action string
	switch f.Type {
	case flagBool:
		action = ""
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(`:file:_files -g "%s"`, globAlternation(f.FileGlob))
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = fmt.Sprintf(":%s:", f.Long)
	}

	desc := zshSanitize(f.Desc)
	if f.Short != "" {
		return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
	}
	return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
}

// zshSanitize strips characters that break _arguments spec strings.
func zshSanitize(s string) string {
	s = strings.ReplaceAll(s, "[", "(")
	s = strings.ReplaceAll(s, "]", ")")
	s = strings.ReplaceAll(s, "'", "")
	return s
}

// generateFish writes the fish completion script.
func generateFish(w io.Writer) error {
	commands := getCommands()

	var b strings.Builder
	b.WriteString("# fish completion for svg2png\n")
	b.WriteString("# Install: svg2png completion fish > ~/.config/fish/completions/svg2png.fish\n\n")
	b.WriteString("function __fish_svg2png_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_svg2png_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")

	b.WriteString("# Commands\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "complete -c svg2png -f -n __fish_svg2png_needs_command -a %s -d '%s'\n",
			cmd.Name, cmd.Desc)
	}
	b.WriteString("\n")

	for _, cmd := range commands {
		if len(cmd.Flags) == 0 && len(cmd.ArgWords) == 0 && !cmd.TakesFiles {
			continue
		}
		fmt.Fprintf(&b, "# %s\n", cmd.Name)
		cond := fmt.Sprintf("'__fish_svg2png_using_command %s'", cmd.Name)
		for _, f := range cmd.Flags {
			fmt.Fprintf(&b, "complete -c svg2png -n %s %s\n", cond, fishFlagSpec(f))
		}
		if cmd.TakesFiles {
			ext := strings.TrimPrefix(strings.Split(cmd.FilePattern, ",")[0], "*")
			fmt.Fprintf(&b, "complete -c svg2png -n %s -a '(__fish_complete_suffix %s)'\n", cond, ext)
		} else if len(cmd.ArgWords) > 0 {
			fmt.Fprintf(&b, "complete -c svg2png -f -n %s -a '%s'\n", cond, strings.Join(cmd.ArgWords, " "))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// fishFlagSpec builds the option part of a fish complete invocation.
func fishFlagSpec(f flagDef) string {
	var b strings.Builder
	if f.Short != "" {
		fmt.Fprintf(&b, "-s %s ", f.Short)
	}
	fmt.Fprintf(&b, "-l %s -d '%s'", f.Long, strings.ReplaceAll(f.Desc, "'", ""))

	switch f.Type {
	case flagBool:
		// No argument
	case flagEnum:
		fmt.Fprintf(&b, " -x -a '%s'", strings.Join(f.Values, " "))
	case flagDir:
		b.WriteString(" -r -f -a '(__fish_complete_directories)'")
	default:
		b.WriteString(" -r")
	}
	return b.String()
}

// generatePowerShell writes the PowerShell completion script.
func generatePowerShell(w io.Writer) error {
	commands := getCommands()

	var b strings.Builder
	b.WriteString("# PowerShell completion for svg2png\n")
	b.WriteString("# Install: svg2png completion powershell | Out-String | Invoke-Expression\n\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName svg2png -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")

	b.WriteString("    $commands = @(\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "        @{ Name = '%s'; Desc = '%s' }\n", cmd.Name, cmd.Desc)
	}
	b.WriteString("    )\n\n")

	b.WriteString("    $flags = @{\n")
	for _, cmd := range commands {
		words := flagWords(cmd.Flags)
		if len(cmd.ArgWords) > 0 {
			if words != "" {
				words += " "
			}
			words += strings.Join(cmd.ArgWords, " ")
		}
		if words == "" {
			continue
		}
		quoted := make([]string, 0)
		for _, word := range strings.Fields(words) {
			quoted = append(quoted, "'"+word+"'")
		}
		fmt.Fprintf(&b, "        %s = @(%s)\n", cmd.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $elements = $commandAst.CommandElements | ForEach-Object { $_.Extent.Text }\n\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete)) {\n")
	b.WriteString("        $commands | Where-Object { $_.Name -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterValue', $_.Desc)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $cmd = $elements[1]\n")
	b.WriteString("    if ($flags.ContainsKey($cmd)) {\n")
	b.WriteString("        $flags[$cmd] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
