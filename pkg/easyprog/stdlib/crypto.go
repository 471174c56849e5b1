package stdlib

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

func cryptoBuiltins() []builtin {
	return []builtin{
		{"hash_password", builtinHashPassword},
		{"check_password", builtinCheckPassword},
	}
}

func builtinHashPassword(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	password, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, c.failErr("VALUE-0006", err, nil)
	}
	return str(string(hash)), nil
}

// builtinCheckPassword returns 1 when password matches hash. A malformed hash
// is a mismatch, not an error.
func builtinCheckPassword(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	hash, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	password, err := c.strArg(1)
	if err != nil {
		return nil, err
	}
	ok := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	return evaluator.Bool(ok), nil
}
