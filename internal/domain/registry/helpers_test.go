package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

type fixedNetwork bool

func (n fixedNetwork) IsNonProduction() bool { return bool(n) }

const (
	production    = fixedNetwork(false)
	nonProduction = fixedNetwork(true)
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, req LoadRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func acceptingLoader() *mockLoader {
	l := &mockLoader{}
	l.On("Load", mock.Anything, mock.Anything).Return(nil)
	return l
}

var (
	alice = types.MustParseAddress("0xa11ce")
	bob   = types.MustParseAddress("0xb0b")
	carol = types.MustParseAddress("0xca501")
)

func pkg(name string, p types.Policy, modules ...string) *types.Package {
	out := &types.Package{Name: name, UpgradePolicy: p}
	for _, m := range modules {
		out.Modules = append(out.Modules, types.Module{Name: m, Source: []byte(m)})
	}
	return out
}

func withDeps(p *types.Package, deps ...types.DepRef) *types.Package {
	p.Deps = append(p.Deps, deps...)
	return p
}

func dep(addr types.Address, name string) types.DepRef {
	return types.DepRef{Account: addr, PackageName: name}
}

func codeFor(p *types.Package) [][]byte {
	code := make([][]byte, len(p.Modules))
	for i, m := range p.Modules {
		code[i] = m.Source
	}
	return code
}

func seed(store Store, addr types.Address, pkgs ...*types.Package) {
	reg := types.NewRegistry(addr)
	for _, p := range pkgs {
		reg.Packages = append(reg.Packages, p.Clone())
	}
	if err := store.Save(context.Background(), reg); err != nil {
		panic(err)
	}
}
