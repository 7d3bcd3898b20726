// Package risk flags generated commands that deserve a second look before they run.
// It only reports; it never blocks or rewrites a command.
package risk

import (
	"fmt"
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Finding describes one reason a command looks dangerous
type Finding struct {
	Command string
	Program string
	Reason  string
}

func (f Finding) String() string {
	if f.Program == "" {
		return f.Reason
	}
	return fmt.Sprintf("%s: %s", f.Program, f.Reason)
}

var destructivePrograms = map[string]string{
	"rm":       "removes files",
	"rmdir":    "removes directories",
	"dd":       "writes raw data",
	"shred":    "destroys file contents",
	"fdisk":    "edits partition tables",
	"parted":   "edits partition tables",
	"wipefs":   "erases filesystem signatures",
	"userdel":  "deletes a user",
	"groupdel": "deletes a group",
	"kill":     "terminates processes",
	"pkill":    "terminates processes",
	"killall":  "terminates processes",
	"shutdown": "powers off the machine",
	"reboot":   "reboots the machine",
	"poweroff": "powers off the machine",
	"halt":     "halts the machine",
}

var recursiveOnly = map[string]string{
	"chmod": "changes permissions recursively",
	"chown": "changes ownership recursively",
	"chgrp": "changes group recursively",
}

var privileged = map[string]bool{
	"sudo": true,
	"doas": true,
}

// elevators run their argument as a new program
var elevators = map[string]bool{
	"sudo":  true,
	"doas":  true,
	"env":   true,
	"nice":  true,
	"xargs": true,
}

var interpreters = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"dash": true,
}

var downloaders = map[string]bool{
	"curl": true,
	"wget": true,
}

// Assess parses command as a POSIX shell program and reports what looks dangerous.
// A command that cannot be parsed yields a single finding saying so.
func Assess(command string) []Finding {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(command), "")
	if err != nil {
		return []Finding{{Command: command, Reason: fmt.Sprintf("could not be parsed: %v", err)}}
	}

	var findings []Finding
	add := func(program, reason string) {
		findings = append(findings, Finding{Command: command, Program: program, Reason: reason})
	}

	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.CallExpr:
			args := literalArgs(n.Args)
			program, rest := unwrapElevators(args)
			if program == "" {
				return true
			}
			name := path.Base(program)
			if reason, ok := destructivePrograms[name]; ok {
				add(name, reason)
			}
			if strings.HasPrefix(name, "mkfs") {
				add(name, "formats a filesystem")
			}
			if reason, ok := recursiveOnly[name]; ok && hasRecursiveFlag(rest) {
				add(name, reason)
			}
			if len(args) > 0 && privileged[path.Base(args[0])] {
				add(path.Base(args[0]), "runs with elevated privileges")
			}
		case *syntax.Redirect:
			if n.Word != nil && (n.Op == syntax.RdrOut || n.Op == syntax.AppOut || n.Op == syntax.RdrAll || n.Op == syntax.AppAll) {
				target := n.Word.Lit()
				if strings.HasPrefix(target, "/dev/") && !isHarmlessDevice(target) {
					add("", fmt.Sprintf("writes to device %s", target))
				} else if strings.HasPrefix(target, "/etc/") || strings.HasPrefix(target, "/boot/") {
					add("", fmt.Sprintf("overwrites system file %s", target))
				}
			}
		case *syntax.BinaryCmd:
			if n.Op == syntax.Pipe || n.Op == syntax.PipeAll {
				if downloaders[firstProgram(n.X)] && interpreters[firstProgram(n.Y)] {
					add(firstProgram(n.Y), "runs a downloaded script")
				}
			}
		}
		return true
	})

	return findings
}

// AssessAll assesses every command of a batch
func AssessAll(commands []string) []Finding {
	var findings []Finding
	for _, command := range commands {
		findings = append(findings, Assess(command)...)
	}
	return findings
}

// literalArgs returns the literal value of each word, "" for words with expansions
func literalArgs(words []*syntax.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Lit()
	}
	return out
}

// valueFlags lists elevator flags that consume the following argument
var valueFlags = map[string]map[string]bool{
	"sudo":  {"-u": true, "-g": true, "-U": true, "-C": true, "-D": true},
	"doas":  {"-u": true, "-C": true},
	"nice":  {"-n": true},
	"xargs": {"-n": true, "-I": true, "-P": true, "-L": true, "-d": true},
}

// unwrapElevators skips sudo/env style prefixes and their flags
func unwrapElevators(args []string) (string, []string) {
	elevator := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if elevators[path.Base(arg)] {
			elevator = path.Base(arg)
			continue
		}
		if elevator != "" && (strings.HasPrefix(arg, "-") || strings.Contains(arg, "=")) {
			if valueFlags[elevator][arg] {
				i++
			}
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}

func hasRecursiveFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--recursive" {
			return true
		}
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && strings.ContainsAny(arg, "R") {
			return true
		}
	}
	return false
}

func isHarmlessDevice(target string) bool {
	switch target {
	case "/dev/null", "/dev/stdout", "/dev/stderr", "/dev/tty":
		return true
	}
	return false
}

// firstProgram returns the program name of the first call in a pipeline side
func firstProgram(stmt *syntax.Stmt) string {
	if stmt == nil {
		return ""
	}
	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		program, _ := unwrapElevators(literalArgs(cmd.Args))
		return path.Base(program)
	case *syntax.BinaryCmd:
		return firstProgram(cmd.X)
	}
	return ""
}
