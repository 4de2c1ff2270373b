package loader

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Wire layout of a load request as a protobuf Struct:
//
//	publisher        string  "0xcafe"
//	package          string  "Coins"
//	expected_modules list    ["coin", ...]
//	allowed_deps     list    [{"account": "0x1", "module": "*"}, ...]
//	code             list    base64 strings, one per module
//	policy           string  "compatible"
func encodeRequest(req registry.LoadRequest) (*structpb.Struct, error) {
	modules := make([]interface{}, len(req.ExpectedModules))
	for i, m := range req.ExpectedModules {
		modules[i] = m
	}

	deps := make([]interface{}, len(req.AllowedDeps))
	for i, d := range req.AllowedDeps {
		deps[i] = map[string]interface{}{
			"account": d.Account.String(),
			"module":  d.ModuleName,
		}
	}

	code := make([]interface{}, len(req.Code))
	for i, blob := range req.Code {
		code[i] = base64.StdEncoding.EncodeToString(blob)
	}

	return structpb.NewStruct(map[string]interface{}{
		"publisher":        req.Publisher.String(),
		"package":          req.Package,
		"expected_modules": modules,
		"allowed_deps":     deps,
		"code":             code,
		"policy":           req.Policy.String(),
	})
}

func decodeRequest(s *structpb.Struct) (registry.LoadRequest, error) {
	var req registry.LoadRequest
	fields := s.GetFields()

	publisher, err := types.ParseAddress(fields["publisher"].GetStringValue())
	if err != nil {
		return req, fmt.Errorf("publisher: %w", err)
	}
	req.Publisher = publisher
	req.Package = fields["package"].GetStringValue()

	policy, err := types.ParsePolicy(fields["policy"].GetStringValue())
	if err != nil {
		return req, err
	}
	req.Policy = policy

	for _, v := range fields["expected_modules"].GetListValue().GetValues() {
		req.ExpectedModules = append(req.ExpectedModules, v.GetStringValue())
	}

	for _, v := range fields["allowed_deps"].GetListValue().GetValues() {
		dep := v.GetStructValue().GetFields()
		account, err := types.ParseAddress(dep["account"].GetStringValue())
		if err != nil {
			return req, fmt.Errorf("allowed dep: %w", err)
		}
		req.AllowedDeps = append(req.AllowedDeps, types.AllowedDep{
			Account:    account,
			ModuleName: dep["module"].GetStringValue(),
		})
	}

	for i, v := range fields["code"].GetListValue().GetValues() {
		blob, err := base64.StdEncoding.DecodeString(v.GetStringValue())
		if err != nil {
			return req, fmt.Errorf("code blob %d: %w", i, err)
		}
		req.Code = append(req.Code, blob)
	}

	return req, nil
}
