package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		display bool
		want    []string
	}{
		{"bare with display opens the GUI", []string{"pdrive"}, true, []string{"pdrive", "--gui"}},
		{"bare without display shows help", []string{"pdrive"}, false, []string{"pdrive"}},
		{"subcommand stays CLI", []string{"pdrive", "ls"}, true, []string{"pdrive", "ls"}},
		{"--cli is dropped", []string{"pdrive", "--cli"}, true, []string{"pdrive"}},
		{"--cli with a command", []string{"pdrive", "--cli", "ls", "3"}, true, []string{"pdrive", "ls", "3"}},
		{"explicit --gui untouched", []string{"pdrive", "--gui"}, false, []string{"pdrive", "--gui"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveMode(tt.args, tt.display))
		})
	}
}
