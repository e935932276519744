package pysyntax

import "strconv"

func parseIntLit(lit string) (int64, error) {
	return strconv.ParseInt(lit, 10, 64)
}

func parseFloatLit(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}

// parseFString splits an f-string's already-unescaped body into alternating
// literal/expression segments and parses each `{...}` expression with its
// own Parser instance, so no separate mini-grammar is needed for the
// embedded expressions.
func parseFString(body string, pos Position) (Expr, error) {
	var parts []string
	var exprs []Expr
	var lit []byte
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '{' {
			if i+1 < len(body) && body[i+1] == '{' {
				lit = append(lit, '{')
				i += 2
				continue
			}
			parts = append(parts, string(lit))
			lit = nil
			j := i + 1
			depth := 1
			for j < len(body) && depth > 0 {
				switch body[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						continue
					}
				}
				j++
			}
			exprSrc := body[i+1 : j]
			toks, err := NewScanner(exprSrc + "\n").Tokenize()
			if err != nil {
				return nil, err
			}
			ep := NewParser(toks)
			e, err := ep.parseExpr()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
			i = j + 1
			continue
		}
		if c == '}' && i+1 < len(body) && body[i+1] == '}' {
			lit = append(lit, '}')
			i += 2
			continue
		}
		lit = append(lit, c)
		i++
	}
	parts = append(parts, string(lit))
	return &FStringExpr{base: base{pos}, Parts: parts, Exprs: exprs}, nil
}
