// afshell is an interactive REPL for manually exploring an asyncfile.File:
// create/open it, allocate space, write and read buffers, trigger a
// synch, and inspect its size. Modeled directly on the slotcache REPL
// this repository's file layout is adapted from.
//
// Usage:
//
//	afshell <file>              Open an existing file (creating it if missing)
//
// Commands (in REPL):
//
//	alloc <n>                    Reserve n bytes, prints the offset
//	write <offset> <text>        Write text at offset (UTF-8 bytes)
//	read <offset> <n>             Read n bytes at offset, prints as hex/text
//	synch                          Flush dirty data to disk
//	stat                          Show size and open/closed state
//	shrink <n>                    Truncate the logical address space to n bytes
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/asyncfile/pkg/asyncfile"
	"github.com/calvinalkan/asyncfile/pkg/fs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: afshell <file>")
		return errors.New("missing file path")
	}

	path := os.Args[1]

	file := asyncfile.New(path, fs.NewReal())
	if err := file.Create(); err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer file.Close()

	repl := &REPL{file: file, path: path}
	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	file  *asyncfile.File
	path  string
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".afshell_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("afshell - asyncfile CLI (%s)\n", r.path)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("afshell> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "alloc":
			r.cmdAlloc(args)

		case "write":
			r.cmdWrite(args)

		case "read":
			r.cmdRead(args)

		case "synch", "sync", "flush":
			r.file.Synch()
			fmt.Println("OK")

		case "stat":
			r.cmdStat()

		case "shrink":
			r.cmdShrink(args)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"alloc", "write", "read", "synch", "sync", "flush",
		"stat", "shrink", "help", "exit", "quit", "q",
	}

	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  alloc <n>                Reserve n bytes, prints the offset")
	fmt.Println("  write <offset> <text>    Write text at offset")
	fmt.Println("  read <offset> <n>        Read n bytes at offset")
	fmt.Println("  synch                    Flush dirty data to disk")
	fmt.Println("  stat                     Show size and open state")
	fmt.Println("  shrink <n>               Truncate logical address space to n bytes")
	fmt.Println("  help                     Show this help")
	fmt.Println("  exit / quit / q          Exit")
}

func (r *REPL) cmdAlloc(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: alloc <n>")
		return
	}

	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || n <= 0 {
		fmt.Println("Error: n must be a positive integer")
		return
	}

	offset, err := r.file.AllocateSpace(context.Background(), n)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("OK: reserved %d bytes at offset %d\n", n, offset)
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: write <offset> <text>")
		return
	}

	offset, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing offset: %v\n", err)
		return
	}

	text := strings.Join(args[1:], " ")

	if err := r.file.Write(context.Background(), offset, []byte(text)); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("OK: wrote %d bytes at offset %d\n", len(text), offset)
}

func (r *REPL) cmdRead(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: read <offset> <n>")
		return
	}

	offset, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing offset: %v\n", err)
		return
	}

	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		fmt.Println("Error: n must be a positive integer")
		return
	}

	buf := make([]byte, n)
	if err := r.file.Read(context.Background(), offset, buf, false); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("hex:  %s\n", hex.EncodeToString(buf))
	fmt.Printf("text: %q\n", string(buf))
}

func (r *REPL) cmdStat() {
	fmt.Printf("path:  %s\n", r.file.Name())
	fmt.Printf("size:  %d bytes\n", r.file.FileSize())
	fmt.Printf("open:  %v\n", r.file.IsOpen())
}

func (r *REPL) cmdShrink(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: shrink <n>")
		return
	}

	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || n < 0 {
		fmt.Println("Error: n must be >= 0")
		return
	}

	if err := r.file.Shrink(n); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("OK: shrunk to %d bytes\n", n)
}
