package validator

import (
	"strings"
	"unicode"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// layerWords mark an increment described in terms of a technical layer.
var layerWords = map[string]bool{
	"api": true, "apis": true, "backend": true, "boilerplate": true,
	"cache": true, "caching": true, "config": true, "configuration": true,
	"controller": true, "controllers": true, "database": true, "db": true,
	"endpoint": true, "endpoints": true, "frontend": true, "infrastructure": true,
	"layer": true, "migration": true, "migrations": true, "model": true,
	"models": true, "orm": true, "repository": true, "scaffold": true,
	"scaffolding": true, "schema": true, "service": true, "services": true,
	"setup": true, "table": true, "tables": true, "ui": true,
}

// userWords mark an increment described in terms of what someone can do.
var userWords = map[string]bool{
	"user": true, "users": true, "customer": true, "customers": true,
	"visitor": true, "visitors": true, "admin": true, "admins": true,
	"member": true, "members": true, "can": true, "see": true, "sees": true,
	"view": true, "views": true, "receive": true, "receives": true,
	"click": true, "clicks": true, "submit": true, "submits": true,
	"display": true, "displays": true, "screen": true, "page": true,
}

// infrastructureOnly reports whether the increment's name and scope mention
// a technical layer and never mention a user or a user action.
func infrastructureOnly(inc artifacts.Increment) bool {
	hasLayer := false
	for _, w := range words(inc.Name + " " + inc.Scope) {
		if userWords[w] {
			return false
		}
		if layerWords[w] {
			hasLayer = true
		}
	}
	return hasLayer
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
