package permission

import (
	"sort"
	"strings"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// GroupNode is a module or a resource group of the permission group tree.
type GroupNode struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
	// Module is set on resource groups only.
	Module   string      `json:"module,omitempty"`
	Children []GroupNode `json:"children,omitempty"`
}

// BuildGroupTree groups permissions by module (first group segment) and by
// full group string below it. Modules are sorted by key, groups by label.
//
// The module label is, in order: the configured label, a label inferred
// from a display name of the module, or the capitalized module key.
func BuildGroupTree(perms []models.Permission, moduleLabels map[string]string) []GroupNode {
	var (
		groupOrder  []string
		counts      = make(map[string]int)
		moduleOrder []string
		byModule    = make(map[string][]models.Permission)
	)

	for _, p := range perms {
		if _, ok := counts[p.Group]; !ok {
			groupOrder = append(groupOrder, p.Group)
		}

		counts[p.Group]++

		module, _ := splitGroup(p.Group)
		if _, ok := byModule[module]; !ok {
			moduleOrder = append(moduleOrder, module)
		}

		byModule[module] = append(byModule[module], p)
	}

	modules := make(map[string]*GroupNode, len(moduleOrder))
	for _, module := range moduleOrder {
		modules[module] = &GroupNode{
			Key:      module,
			Label:    moduleLabel(module, byModule[module], moduleLabels),
			Children: []GroupNode{},
		}
	}

	for _, group := range groupOrder {
		module, resource := splitGroup(group)
		if resource == "" {
			continue
		}

		m := modules[module]
		m.Children = append(m.Children, GroupNode{
			Key:    group,
			Label:  resource,
			Count:  counts[group],
			Module: module,
		})
		m.Count += counts[group]
	}

	out := make([]GroupNode, 0, len(modules))

	for _, module := range moduleOrder {
		m := modules[module]
		sort.SliceStable(m.Children, func(i, j int) bool { return m.Children[i].Label < m.Children[j].Label })
		out = append(out, *m)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// splitGroup returns the first and second segment of a dotted group key.
func splitGroup(group string) (string, string) {
	parts := strings.Split(group, ".")
	if len(parts) < 2 { //nolint:mnd
		return parts[0], ""
	}

	return parts[0], parts[1]
}

func moduleLabel(module string, perms []models.Permission, configured map[string]string) string {
	if label, ok := configured[module]; ok {
		return label
	}

	if label := inferModuleLabel(module, perms); label != "" {
		return label
	}

	return capitalize(module)
}

// inferModuleLabel reads the label from display names shaped like
// "<module>.<label>.<action>". A label "IAM - 用户管理" yields "IAM",
// any other label yields "<module>.<label>".
func inferModuleLabel(module string, perms []models.Permission) string {
	for _, p := range perms {
		if p.DisplayName == "" {
			continue
		}

		parts := strings.Split(p.DisplayName, ".")
		if len(parts) < 2 { //nolint:mnd
			continue
		}

		first := strings.TrimSpace(parts[0])
		second := strings.TrimSpace(parts[1])

		if second == "" {
			continue
		}

		if before, _, found := strings.Cut(second, " - "); found {
			if label := strings.TrimSpace(before); label != "" {
				return label
			}
		}

		if first == "" {
			first = module
		}

		return first + "." + second
	}

	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)

	return strings.ToUpper(string(r[0])) + string(r[1:])
}
