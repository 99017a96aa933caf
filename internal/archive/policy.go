// This file is part of matstrip
//
// Package archive holds the policy and passthrough logic shared by the
// ZIP and TAR engines (spec.md components C5/C6/C8), so the two engines
// cannot drift on what "should this unsupported entry be kept" means.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package archive

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NOMETA is the fixed set of extensions that cannot carry metadata and
// are therefore re-added with normalized envelope metadata but without
// re-sanitization. Immutable, built once at package init, per spec.md
// §9's resolution of the original's global mutable NOMETA set.
var NOMETA = map[string]bool{
	".bmp":  true,
	".rdf":  true,
	".txt":  true,
	".xml":  true,
	".rels": true,
}

// Policy is the per-call configuration record from spec.md §3:
// archive policies that interact with recursion.
type Policy struct {
	// Whitelist entries are always re-added even if unsupported. A
	// member may be a literal entry name or a doublestar glob pattern
	// (e.g. "**/*.rels") — see SPEC_FULL.md's M-TERMINAL-ZIP section.
	Whitelist []string

	// BeginningBlacklist: entries whose name starts with any of these
	// are dropped outright, before any stripper is even attempted.
	BeginningBlacklist []string

	// EndingBlacklist: entries whose name ends with any of these are
	// dropped outright.
	EndingBlacklist []string

	// Terminal, when true, means a resolved child stripper that is
	// itself a container is treated as unmatched (falls through to
	// NOMETA/whitelist/add2archive) instead of being recursed into.
	// Set by the Terminal-ZIP specialization (spec.md §4.7).
	Terminal bool
}

// Blacklisted reports whether name is excluded by the policy's
// prefix/suffix rules, checked in the order spec.md §4.5 step 2 and
// §6.4 require: beginning blacklist first, then ending blacklist.
func (p Policy) Blacklisted(name string) bool {
	for _, prefix := range p.BeginningBlacklist {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, suffix := range p.EndingBlacklist {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Whitelisted reports whether name matches a whitelist member, either
// literally or as a doublestar glob.
func (p Policy) Whitelisted(name string) bool {
	for _, w := range p.Whitelist {
		if w == name {
			return true
		}
		if strings.ContainsAny(w, "*?[") {
			if ok, _ := doublestar.Match(w, name); ok {
				return true
			}
		}
	}
	return false
}

// HarmlessExtension reports whether name's extension is in NOMETA.
func HarmlessExtension(name string) bool {
	return NOMETA[filepath.Ext(name)]
}

// KeepUnsupported implements the three-way fallback of spec.md §4.5
// step 3 / §4.6 for an entry with no matched stripper: keep the bytes
// unchanged if its extension is harmless, if it is explicitly
// whitelisted, or if add2archive is set; otherwise the entry is
// dropped. Shared verbatim by the ZIP and TAR engines so they cannot
// drift on this decision.
func (p Policy) KeepUnsupported(name string, add2Archive bool) bool {
	return HarmlessExtension(name) || p.Whitelisted(name) || add2Archive
}
