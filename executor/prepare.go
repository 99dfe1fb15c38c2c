package executor

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/oar-cd/connectctl/connect"
)

const (
	maxNameLength  = 64
	minNameLength  = 3
	maxTitleLength = 1024
)

// DefaultTitle derives a title from the last element of path, without
// extensions: "/work/site.tar.gz" gives "site".
func DefaultTitle(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "bundle"
	}
	if len(base) > maxTitleLength {
		cut := maxTitleLength
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}
	return base
}

// MakeDeploymentName turns a title into an app name: lowercase letters,
// digits and underscores, between 3 and 64 characters.
func MakeDeploymentName(title string) string {
	name := strings.ReplaceAll(slug.Make(title), "-", "_")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	if len(name) < minNameLength {
		name += strings.Repeat("_", minNameLength-len(name))
	}
	return name
}

// PrepareDeployment fills in the title and the app name. A new app gets a
// name no other app on the server uses.
func (e *Executor) PrepareDeployment(ctx context.Context, dc *DeployContext) error {
	dc.TitleIsDefault = dc.Title == ""
	if dc.TitleIsDefault {
		dc.Title = DefaultTitle(dc.Path)
	}

	dc.Name = MakeDeploymentName(dc.Title)
	if dc.AppID != 0 {
		return nil
	}

	client, err := e.Client(dc.Server)
	if err != nil {
		return err
	}
	name, err := connect.FindUniqueName(ctx, client, dc.Name)
	if err != nil {
		return err
	}
	dc.Name = name
	return nil
}
