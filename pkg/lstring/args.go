package lstring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// ExtractArgs parses the parenthesized argument list of a single command
// token. A token without a group, or with an empty group, has no arguments.
func ExtractArgs(token string) ([]float64, error) {
	open := strings.IndexByte(token, '(')
	if open < 0 {
		return []float64{}, nil
	}
	end := strings.LastIndexByte(token, ')')
	if end < open {
		return nil, types.NewMalformedTokenError("unterminated argument list", open, token)
	}
	return parseGroup(token, token[open+1:end])
}

func parseGroup(token, group string) ([]float64, error) {
	if group == "" {
		return []float64{}, nil
	}
	pieces := strings.Split(group, ",")
	args := make([]float64, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			e := types.NewParseError(fmt.Sprintf("argument %q is not a number", p))
			e.Token = token
			return nil, e
		}
		args = append(args, v)
	}
	return args, nil
}
