package parsers

import (
	"fmt"

	"github.com/username/cryptotax/src/parsers/generic"
	"github.com/username/cryptotax/src/parsers/kraken"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "generic":
		return generic.NewParser(), nil
	case "kraken":
		return kraken.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
