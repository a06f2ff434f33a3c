package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFA500")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		root := ctx.Model.Node
		node := ctx.Selected()
		if node == nil {
			node = root
		}

		// Title and description
		sb.WriteString(helpTitleStyle.Render("Soundcheck 🎚"))
		sb.WriteString("\n")
		desc := "Media audio extraction, quality analysis and enhancement"
		if node != root && node.Help != "" {
			desc = node.Help
		}
		sb.WriteString(helpDescStyle.Render(desc))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usageLine(ctx.Model.Name, node))
		sb.WriteString("\n")

		commands := getCommands(node)
		if len(commands) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Commands:"))
			sb.WriteString("\n")
			for _, cmd := range commands {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(fmt.Sprintf("%-10s", cmd.name)))
				if cmd.help != "" {
					sb.WriteString("  ")
					sb.WriteString(cmd.help)
				}
				sb.WriteString("\n")
			}
		}

		// Arguments section
		args := getArguments(node)
		if len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.name))
				if arg.help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.help)
				}
				sb.WriteString("\n")
			}
		}

		writeFlags(&sb, "Flags:", getFlags(node, true))
		if node != root {
			writeFlags(&sb, "Global Flags:", getFlags(root, false))
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

func usageLine(app string, node *kong.Node) string {
	var path []string
	for n := node; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		path = append([]string{n.Name}, path...)
	}
	parts := append([]string{app}, path...)
	if len(getCommands(node)) > 0 {
		parts = append(parts, "<command>")
	}
	parts = append(parts, "[flags]")
	for _, arg := range node.Positional {
		parts = append(parts, arg.Summary())
	}
	return strings.Join(parts, " ")
}

func writeFlags(sb *strings.Builder, title string, flags []flag) {
	if len(flags) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, flag := range flags {
		sb.WriteString("  ")
		sb.WriteString(helpFlagStyle.Render(flag.flags))
		if flag.help != "" {
			sb.WriteString("  ")
			sb.WriteString(flag.help)
		}
		if flag.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + flag.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func getCommands(node *kong.Node) []argument {
	var commands []argument
	for _, child := range node.Children {
		if child.Hidden || child.Type != kong.CommandNode {
			continue
		}
		commands = append(commands, argument{name: child.Name, help: child.Help})
	}
	return commands
}

func getArguments(node *kong.Node) []argument {
	var args []argument

	for _, arg := range node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}

	return args
}

func getFlags(node *kong.Node, withHelp bool) []flag {
	var flags []flag

	if withHelp {
		flags = append(flags, flag{
			flags: "-h, --help",
			help:  "Show context-sensitive help.",
		})
	}

	for _, f := range node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		flagStr := ""
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		} else {
			flagStr = fmt.Sprintf("--%s", f.Name)
		}

		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}

		var defaultVal string
		if f.HasDefault {
			defaultVal = f.Default
		}

		flags = append(flags, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: defaultVal,
		})
	}

	return flags
}
