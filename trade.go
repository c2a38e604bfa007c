package invest

import (
	"github.com/etnz/invest/date"
)

// Trade is an immutable buy or sell of a single security.
type Trade struct {
	ID         string
	SecurityID string
	Side       Side
	Date       date.Date
	Quantity   Quantity // always positive, the side gives the direction
	Price      Money    // unit price, it carries the trade currency
	Commission Money    // total commission paid on the trade
	Memo       string
}

// NewBuy creates a new buy trade.
func NewBuy(id string, on date.Date, security string, quantity Quantity, price, commission Money) Trade {
	return newTrade(id, Buy, on, security, quantity, price, commission)
}

// NewSell creates a new sell trade.
func NewSell(id string, on date.Date, security string, quantity Quantity, price, commission Money) Trade {
	return newTrade(id, Sell, on, security, quantity, price, commission)
}

func newTrade(id string, side Side, on date.Date, security string, quantity Quantity, price, commission Money) Trade {
	if commission.Currency() == "" {
		commission = M(commission.value, price.Currency())
	}
	return Trade{
		ID:         id,
		SecurityID: security,
		Side:       side,
		Date:       on,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
	}
}

// Currency returns the currency the trade settled in.
func (t Trade) Currency() string { return t.Price.Currency() }

// Gross returns price times quantity.
func (t Trade) Gross() Money { return t.Price.Mul(t.Quantity) }

// Cost returns the total cost of a buy, commission included.
func (t Trade) Cost() Money { return t.Gross().Add(t.Commission) }

// Validate checks the trade fields in isolation.
func (t Trade) Validate() error {
	invalid := func(reason string) error { return &InvalidTradeError{TradeID: t.ID, Reason: reason} }
	switch {
	case t.ID == "":
		return invalid("missing id")
	case t.SecurityID == "":
		return invalid("missing security")
	case t.Date.IsZero():
		return invalid("missing date")
	case !t.Quantity.IsPositive():
		return invalid("quantity must be positive, got " + t.Quantity.String())
	case t.Price.IsNegative():
		return invalid("price must not be negative")
	case t.Commission.IsNegative():
		return invalid("commission must not be negative")
	case t.Commission.Currency() != "" && t.Commission.Currency() != t.Price.Currency():
		return invalid("commission currency " + t.Commission.Currency() + " differs from price currency " + t.Price.Currency())
	}
	if err := ValidateCurrency(t.Currency()); err != nil {
		return invalid(err.Error())
	}
	return nil
}
