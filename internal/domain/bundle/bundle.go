package bundle

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

// Directory layout of a package inside a bundle
const (
	BytecodeDir  = "bytecode_modules"
	SourceMapDir = "source_maps"
	ModuleExt    = ".mv"
	SourceMapExt = ".mvsm"
)

// Bundle is a loaded release
type Bundle struct {
	Name     string
	Chain    string
	Packages []Entry
}

// Entry is one package ready to publish
type Entry struct {
	Account types.Address
	Dir     string
	Package types.Package
	Code    [][]byte
}

// Load reads the descriptor at descriptorPath and every package it lists.
// Package paths are relative to the descriptor's directory.
func Load(fsys fs.FS, descriptorPath string) (*Bundle, error) {
	desc, err := ReadDescriptor(fsys, descriptorPath)
	if err != nil {
		return nil, err
	}
	return LoadPackages(fsys, descriptorPath, desc)
}

// ReadDescriptor reads and parses the descriptor without touching any
// package directory
func ReadDescriptor(fsys fs.FS, descriptorPath string) (*Descriptor, error) {
	data, err := fs.ReadFile(fsys, descriptorPath)
	if err != nil {
		return nil, err
	}
	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", descriptorPath, err)
	}
	return desc, nil
}

// LoadPackages reads every package desc lists, relative to the directory
// of descriptorPath
func LoadPackages(fsys fs.FS, descriptorPath string, desc *Descriptor) (*Bundle, error) {
	root := path.Dir(descriptorPath)
	b := &Bundle{Name: desc.Name, Chain: desc.Chain}
	for _, p := range desc.Packages {
		dir := path.Join(root, p.Path)
		pkg, code, err := LoadPackage(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", desc.Name, err)
		}
		b.Packages = append(b.Packages, Entry{Account: p.Account, Dir: dir, Package: pkg, Code: code})
	}
	return b, nil
}

// LoadPackage reads a package directory: its manifest, bytecode modules and
// optional source maps
func LoadPackage(fsys fs.FS, dir string) (types.Package, [][]byte, error) {
	var pkg types.Package

	raw, err := fs.ReadFile(fsys, path.Join(dir, ManifestFile))
	if err != nil {
		return pkg, nil, err
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return pkg, nil, fmt.Errorf("%s: %w", dir, err)
	}

	available, err := moduleFiles(fsys, path.Join(dir, BytecodeDir))
	if err != nil {
		return pkg, nil, fmt.Errorf("%s: %w", dir, err)
	}

	names := manifest.Package.Modules
	if len(names) == 0 {
		for name := range available {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	pkg = types.Package{
		Name:          manifest.Package.Name,
		UpgradePolicy: manifest.Package.UpgradePolicy,
		SourceDigest:  manifest.Package.SourceDigest,
		Manifest:      raw,
		Deps:          manifest.Deps(),
	}

	code := make([][]byte, 0, len(names))
	for _, name := range names {
		file, ok := available[name]
		if !ok {
			return pkg, nil, fmt.Errorf("%s: module %s listed in manifest has no bytecode", dir, name)
		}
		blob, err := readBlob(fsys, path.Join(dir, BytecodeDir, file))
		if err != nil {
			return pkg, nil, err
		}

		module := types.Module{Name: name, Source: blob}
		if sm, err := readBlob(fsys, path.Join(dir, SourceMapDir, name+SourceMapExt)); err == nil {
			module.SourceMap = sm
		}
		pkg.Modules = append(pkg.Modules, module)
		code = append(code, blob)
	}

	if pkg.SourceDigest == "" {
		pkg.SourceDigest = utils.DefaultHasher().HashBlobs(code)
	}
	return pkg, code, nil
}

// moduleFiles maps module name to file name. Compressed variants such as
// coin.mv.zst count as module coin.
func moduleFiles(fsys fs.FS, dir string) (map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, suffix := range []string{".gz", ".zst"} {
			name = strings.TrimSuffix(name, suffix)
		}
		if !strings.HasSuffix(name, ModuleExt) {
			continue
		}
		module := strings.TrimSuffix(name, ModuleExt)
		if prev, dup := files[module]; dup {
			return nil, fmt.Errorf("module %s has two bytecode files: %s and %s", module, prev, e.Name())
		}
		files[module] = e.Name()
	}
	return files, nil
}

func readBlob(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	out, err := Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
