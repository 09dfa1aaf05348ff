package metrics

import "strings"

var nameFlattener = strings.NewReplacer(" ", "_", ".", "_", "-", "_", "=", "_", "/", "_")

// FlattenName makes s usable as a prometheus namespace or go-metrics prefix.
func FlattenName(s string) string {
	return nameFlattener.Replace(s)
}

func BuildFQName(names ...string) string {
	return FlattenName(strings.Join(names, "_"))
}
