package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/page"
	"github.com/themobileprof/voicepilot/pkg/models"
)

var (
	bold = color.New(color.Bold)
	dim  = color.New(color.Faint)
)

var (
	asJSON bool
	route  string
)

func init() {
	flag.BoolVar(&asJSON, "json", false, "Emit the structure and analysis as JSON")
	flag.StringVar(&route, "route", "/", "Browser route the snapshot was taken on")
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pagescan [-json] [-route /path] <file.html>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read page: %v", err)
	}

	doc, err := dom.ParseString(string(data))
	if err != nil {
		log.Fatalf("Failed to parse page: %v", err)
	}
	doc.SetRoute(route)

	structure := page.NewExtractor().Extract(doc)
	analysis := page.NewAnalyzer().Analyze(structure, route)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err := enc.Encode(models.AnalyzePageResponse{
			Summary:   page.Summarize(structure),
			Structure: structure,
			Analysis:  analysis,
		})
		if err != nil {
			log.Fatalf("Failed to encode output: %v", err)
		}
		return
	}

	printReport(structure, analysis)
}

func printReport(s *models.PageStructure, a *models.PageAnalysis) {
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	bold.Printf("%s\n", title)
	dim.Printf("%s page, %s complexity\n\n", a.PageType, a.Complexity)

	if len(s.Headings) > 0 {
		bold.Println("Headings:")
		for _, h := range s.Headings {
			fmt.Printf("  • %s\n", h)
		}
		fmt.Println()
	}

	if len(s.Buttons) > 0 {
		bold.Println("Buttons:")
		for _, b := range s.Buttons {
			fmt.Printf("  • %s\n", b)
		}
		fmt.Println()
	}

	if len(s.Links) > 0 {
		bold.Println("Links:")
		for _, l := range s.Links {
			fmt.Printf("  • %s\n", l)
		}
		fmt.Println()
	}

	for i, form := range s.Forms {
		bold.Printf("Form %d:\n", i+1)
		fmt.Printf("  Fields: %s\n\n", strings.Join(form.Fields, ", "))
	}

	if len(a.PrimaryActions) > 0 {
		bold.Println("Primary actions:")
		for _, action := range a.PrimaryActions {
			fmt.Printf("  • %s\n", action)
		}
		fmt.Println()
	}

	if len(a.UserGoals) > 0 {
		bold.Println("Likely user goals:")
		for _, goal := range a.UserGoals {
			fmt.Printf("  • %s\n", goal)
		}
		fmt.Println()
	}

	bold.Println("Spoken summary:")
	fmt.Printf("  %s\n", page.Summarize(s))
}
