// Package staging owns the per-run workspaces that hold downloaded clips and
// intermediate renders, plus the sweep that removes workspaces a crashed run
// left behind.
package staging
