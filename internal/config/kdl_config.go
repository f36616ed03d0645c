package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL fills a default Config from .refscope.kdl content, e.g.:
//
//	project {
//	    root "."
//	    name "boxes"
//	}
//	engine {
//	    command "cpp-analysis-engine" "--stdio"
//	}
//	search {
//	    progress_delay_ms 2000
//	    progress_poll_ms 1000
//	    peek_window_ms 1000
//	}
//	include "src/**"
//	exclude "build/**" "third_party/**"
func parseKDL(content string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Project.Root = "" // let Load resolve relative to the config file

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "engine":
			for _, cn := range n.Children {
				if nodeName(cn) == "command" {
					cfg.Engine.Command = collectStringArgs(cn)
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "progress_delay_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.ProgressDelayMs = v
					}
				case "progress_poll_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.ProgressPollMs = v
					}
				case "peek_window_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.PeekWindowMs = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
