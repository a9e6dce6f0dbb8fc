package rules

import (
	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/rules/steps"
)

func init() {
	Register(steps.TypeTrimTrailingWhitespace, func(_ string, params Params) (formatter.Step, error) {
		if err := Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return steps.TrimTrailingWhitespace(), nil
	})
	Register(steps.TypeEndWithNewline, func(_ string, params Params) (formatter.Step, error) {
		if err := Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return steps.EndWithNewline(), nil
	})
	Register(steps.TypeMaxBlankLines, func(_ string, params Params) (formatter.Step, error) {
		p := steps.MaxBlankLinesParams{Max: 1}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.MaxBlankLines(p), nil
	})
	Register(steps.TypeIndent, func(_ string, params Params) (formatter.Step, error) {
		var p steps.IndentParams
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.Indent(p)
	})
	Register(steps.TypeSpaceAfterComment, func(_ string, params Params) (formatter.Step, error) {
		var p steps.SpaceAfterCommentParams
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.SpaceAfterComment(p), nil
	})
	Register(steps.TypeReplace, func(name string, params Params) (formatter.Step, error) {
		var p steps.ReplaceParams
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.Replace(name, p)
	})
	Register(steps.TypeReplaceRegex, func(name string, params Params) (formatter.Step, error) {
		var p steps.ReplaceRegexParams
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.ReplaceRegex(name, p)
	})
	Register(steps.TypeLicenseHeader, func(_ string, params Params) (formatter.Step, error) {
		var p steps.LicenseHeaderParams
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return steps.LicenseHeader(p)
	})
}
