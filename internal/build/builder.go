// Package build loads a project manifest (seraphim.json) and resolves
// the set of modules a multi-module build compiles, adapted from the
// teacher's bytecode-bundling Builder to the middle-end's module-at-a-
// time pipeline: there is no linker and no bytecode here, just the
// manifest shape and the module-list resolution a driver needs before
// handing each entry to the lower/verify/optimize pipeline.
package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BuildConfig is the "build" section of a project manifest, trimmed to
// the fields a middle-end driver needs: which module to start from,
// where to write the textual IR dump, and whether to run the
// optimizer.
type BuildConfig struct {
	EntryModule string `json:"entry_module"`
	OutputPath  string `json:"output_path"`
	Optimize    bool   `json:"optimize"`
}

// ProjectManifest is a seraphim.json project manifest: metadata plus a
// BuildConfig plus the list of AST modules ([MODULE].srm.ast.json
// files) the build command compiles.
type ProjectManifest struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	EntryModule string      `json:"entry_module"`
	Modules     []string    `json:"modules"`
	BuildConfig BuildConfig `json:"build"`
}

// LoadManifest reads seraphim.json from projectRoot. A missing
// manifest is not an error: it yields a default manifest whose single
// module is main.srm.ast.json, mirroring how a single-file script
// needs no manifest at all.
func LoadManifest(projectRoot string) (*ProjectManifest, error) {
	manifestPath := filepath.Join(projectRoot, "seraphim.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectManifest{
				Name:        filepath.Base(projectRoot),
				Version:     "0.1.0",
				EntryModule: "main.srm.ast.json",
				Modules:     []string{"main.srm.ast.json"},
			}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}

	var manifest ProjectManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", manifestPath, err)
	}
	if manifest.EntryModule == "" {
		manifest.EntryModule = manifest.BuildConfig.EntryModule
	}
	if len(manifest.Modules) == 0 {
		manifest.Modules = discoverASTModules(projectRoot)
	}
	return &manifest, nil
}

// discoverASTModules walks projectRoot for *.srm.ast.json files when a
// manifest names no explicit module list, skipping vendor/dist-style
// output directories.
func discoverASTModules(projectRoot string) []string {
	var files []string
	filepath.Walk(projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == "dist" || info.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".srm.ast.json") {
			rel, err := filepath.Rel(projectRoot, path)
			if err == nil {
				files = append(files, rel)
			}
		}
		return nil
	})
	return files
}

// ResolvedModulePath joins projectRoot and a manifest-relative module
// path, leaving absolute paths untouched.
func ResolvedModulePath(projectRoot, modulePath string) string {
	if filepath.IsAbs(modulePath) {
		return modulePath
	}
	return filepath.Join(projectRoot, modulePath)
}
