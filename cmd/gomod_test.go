package main

import (
	"os"
	"sort"
	"strings"
	"testing"
)

func TestGoModRequiresSorted(t *testing.T) {
	data, err := os.ReadFile("../go.mod")
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	var block []string
	inRequire := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "require (":
			inRequire, block = true, nil
		case inRequire && line == ")":
			inRequire = false
			if !sort.StringsAreSorted(block) {
				t.Fatalf("require block not sorted: %v", block)
			}
		case inRequire && line != "":
			block = append(block, strings.Fields(line)[0])
		}
	}
}
