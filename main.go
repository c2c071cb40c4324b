package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Tobias-Kohn/PyPPLCompiler/ppl"
	"github.com/grailbio/base/log"
)

var (
	languageFlag = flag.String("language", "", "Input language: 'py' or 'clj'. Autodetected when empty.")
	baseFlag     = flag.String("base", "", "Base class mentioned in the generated model code.")
	codeFlag     = flag.Bool("code", false, "Print the generated model code in addition to the graph.")
)

func parseLanguage(s string) ppl.Language {
	switch s {
	case "":
		return ppl.LangAuto
	case "py", "python", "Python":
		return ppl.LangPython
	case "clj", "clojure", "Clojure", "foppl":
		return ppl.LangClojure
	}
	log.Panicf("unknown language %q (expected 'py' or 'clj')", s)
	return ppl.LangAuto
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] model-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("open %s: %v", path, err)
	}
	opts := ppl.Options{
		Language:  parseLanguage(*languageFlag),
		BaseClass: *baseFlag,
		Filename:  path,
	}
	model, err := ppl.CompileModel(string(source), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(model.Graph.String())
	if *codeFlag {
		fmt.Println()
		fmt.Print(model.Code)
	}
}
