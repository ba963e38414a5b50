package filing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/declaration"
)

// ParamsFor derives the filing parameters of a built box set.
func ParamsFor(ownerID uuid.UUID, boxes any) (FileParams, error) {
	p := FileParams{OwnerID: ownerID, Boxes: boxes}

	switch b := boxes.(type) {
	case declaration.Model303:
		p.Model, p.Year, p.Quarter = declaration.Model303Code, b.Period.Year, b.Period.Quarter
		p.Result, p.Action = resultOf(b.Result), b.Action
	case declaration.Model130:
		p.Model, p.Year, p.Quarter = declaration.Model130Code, b.Period.Year, b.Period.Quarter
		p.Result, p.Action = resultOf(b.Result), b.Action
	case declaration.Model115:
		p.Model, p.Year, p.Quarter = declaration.Model115Code, b.Period.Year, b.Period.Quarter
		p.Result, p.Action = resultOf(b.Result), b.Action
	case declaration.Model390:
		p.Model, p.Year = declaration.Model390Code, b.Year
		p.Result, p.Action = resultOf(b.Result), b.Action
	case declaration.Model180:
		p.Model, p.Year = declaration.Model180Code, b.Year
	default:
		return FileParams{}, fmt.Errorf("%w: %T", ErrUnknownModel, boxes)
	}

	return p, nil
}

func resultOf(d decimal.Decimal) *decimal.Decimal {
	return &d
}
