package rules

import (
	"path/filepath"
	"strings"

	"ushlint/internal/policy"
)

// structureRule covers USH0044-USH0045: every behaviour lives in a
// namespace, and a non-abstract behaviour's class name matches the file.
func structureRule() Rule {
	return Rule{
		Name:    "structure",
		IDs:     []string{policy.USH0044, policy.USH0045},
		PerType: checkStructure,
	}
}

func checkStructure(rc *RunContext, tc *TypeContext) {
	decl := tc.Decl
	node := decl.NameNode
	if node == nil {
		node = decl.Node
	}
	if decl.Namespace == "" {
		rc.ReportNode(policy.USH0044, node, decl.Name)
	}
	if decl.HasModifier("abstract") {
		return
	}
	base := fileBaseName(rc.Doc.Doc.Path)
	if base != "" && decl.Name != base {
		rc.ReportNode(policy.USH0045, node, decl.Name, base)
	}
}

func fileBaseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
