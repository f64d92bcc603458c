package store

import (
	"fmt"
	"strings"
)

// AliasTable maps a canonical field name to the spellings found in legacy
// exports, in lookup priority order.
type AliasTable map[string][]string

var HistoryAliases = AliasTable{
	"ID":       {"ID", "Id", "id"},
	"Año":      {"Año", "año", "Ano", "ano"},
	"Mes":      {"Mes", "mes"},
	"Fecha":    {"Fecha", "fecha"},
	"Estado":   {"Estado", "estado"},
	"Citacion": {"Citacion", "Citación", "citacion"},
	"Acta":     {"Acta", "acta"},
	"Cuenta":   {"Cuenta", "cuenta"},
}

var MemberAliases = AliasTable{
	"id":        {"id", "pid"},
	"nombre":    {"nombre", "name"},
	"cargo":     {"cargo", "role"},
	"chamber":   {"chamber", "camara"},
	"url_ficha": {"url_ficha", "url"},
}

var NewsAliases = AliasTable{
	"titulo":      {"titulo", "title", "Título", "Titulo"},
	"fecha":       {"fecha", "date", "Fecha"},
	"pdf_url":     {"pdf_url", "url", "link", "pdf"},
	"edicion_url": {"edicion_url", "edition_url", "edicion"},
	"cve":         {"cve", "CVE"},
	"edition":     {"edition", "edicion_num", "Edition"},
	"tab":         {"tab", "Tab"},
}

// rosterListKeys are the keys under which a roster object may nest members.
var rosterListKeys = []string{"integrantes", "members", "items"}

// NormalizeRow resolves every canonical field of table to the first
// non-empty alias value. Columns that are not aliases of anything are kept
// under their original name.
func NormalizeRow(row map[string]string, table AliasTable) map[string]string {
	out := make(map[string]string, len(row))
	known := make(map[string]struct{})
	for canonical, aliases := range table {
		for _, a := range aliases {
			known[a] = struct{}{}
		}
		out[canonical] = ""
		for _, a := range aliases {
			if v := strings.TrimSpace(row[a]); v != "" {
				out[canonical] = v
				break
			}
		}
	}
	for k, v := range row {
		if _, ok := known[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// NormalizeObject is NormalizeRow for decoded JSON objects. Non-string scalar
// values are rendered with fmt; nested values are ignored.
func NormalizeObject(obj map[string]any, table AliasTable) map[string]string {
	row := make(map[string]string, len(obj))
	for k, v := range obj {
		switch x := v.(type) {
		case string:
			row[k] = x
		case float64:
			row[k] = fmt.Sprint(x)
		case bool:
			row[k] = fmt.Sprint(x)
		}
	}
	canon := NormalizeRow(row, table)
	out := make(map[string]string, len(table))
	for k := range table {
		out[k] = canon[k]
	}
	return out
}
