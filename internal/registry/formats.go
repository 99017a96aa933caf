// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package registry

import (
	_ "embed"

	"github.com/BurntSushi/toml"
)

//go:embed formats.toml
var formatsTOML []byte

// FormatDescriptor is a UI-facing description of a supported format,
// per spec.md §6.2.
type FormatDescriptor struct {
	MIME        string `toml:"mime"`
	Extension   string `toml:"extension"`
	Description string `toml:"description"`
}

type formatTable struct {
	Format []FormatDescriptor `toml:"format"`
}

var supportedFormats = mustLoadFormats()

func mustLoadFormats() []FormatDescriptor {
	var table formatTable
	if _, err := toml.Decode(string(formatsTOML), &table); err != nil {
		// formats.toml is embedded at build time; a decode failure here
		// is a build-time authoring error, not a runtime condition.
		panic("registry: malformed formats.toml: " + err.Error())
	}
	return table.Format
}

// ListSupportedFormats returns the static {MIME, Extension, Description}
// table, per spec.md §6.2. The returned slice is a copy; callers may
// freely mutate it.
func ListSupportedFormats() []FormatDescriptor {
	out := make([]FormatDescriptor, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}
