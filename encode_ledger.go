package invest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/etnz/invest/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// CommandType is the value of the "command" field of a ledger line.
type CommandType string

const (
	CmdDeclare CommandType = "declare"
	CmdBuy     CommandType = "buy"
	CmdSell    CommandType = "sell"
)

// tradeIDSpace is the uuid namespace of trade ids derived from ledger lines.
var tradeIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/invest/trade"))

// declareCmd is the ledger line of a security declaration.
type declareCmd struct {
	Command     CommandType `json:"command"`
	Security    string      `json:"security"`
	Currency    string      `json:"currency"`
	Description string      `json:"description,omitempty"`
	Bond        *bondCmd    `json:"bond,omitempty"`
}

// bondCmd holds bond terms, amounts are in the currency of the security.
type bondCmd struct {
	Face         decimal.Decimal  `json:"face"`
	Coupon       Rate             `json:"coupon"`
	Frequency    int              `json:"frequency"`
	Emission     date.Date        `json:"emission,omitempty"`
	Maturity     date.Date        `json:"maturity"`
	Amortization AmortizationMode `json:"amortization"`
	Checkpoints  []Checkpoint     `json:"checkpoints,omitempty"`
}

// tradeCmd is the ledger line of a buy or a sell.
type tradeCmd struct {
	Command    CommandType     `json:"command"`
	ID         string          `json:"id"`
	Date       date.Date       `json:"date"`
	Security   string          `json:"security"`
	Quantity   Quantity        `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Currency   string          `json:"currency"`
	Memo       string          `json:"memo,omitempty"`
}

// DecodeLedger reads a JSONL stream of ledger commands and returns the
// resulting Ledger, trades stable-sorted by date.
//
// Trades without an id get one derived from their line content, so decoding the
// same stream twice gives the same ids. Every invalid line is reported.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	seen := make(map[string]int) // occurrences of identical lines
	var errs error
	lineno := 0

	for scanner.Scan() {
		lineno++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		if err := decodeLine(ledger, lineBytes, seen); err != nil {
			errs = errors.Join(errs, fmt.Errorf("line %d: %w", lineno, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	if errs != nil {
		return nil, errs
	}
	return ledger, nil
}

func decodeLine(ledger *Ledger, line []byte, seen map[string]int) error {
	var identifier struct {
		Command CommandType `json:"command"`
	}
	if err := json.Unmarshal(line, &identifier); err != nil {
		return fmt.Errorf("could not identify command in %q: %w", string(line), err)
	}

	switch identifier.Command {
	case CmdDeclare:
		var cmd declareCmd
		if err := json.Unmarshal(line, &cmd); err != nil {
			return err
		}
		sec, err := cmd.security()
		if err != nil {
			return err
		}
		ledger.Declare(sec)
	case CmdBuy, CmdSell:
		var cmd tradeCmd
		if err := json.Unmarshal(line, &cmd); err != nil {
			return err
		}
		if cmd.ID == "" {
			key := string(line)
			seen[key]++
			cmd.ID = uuid.NewSHA1(tradeIDSpace, fmt.Appendf(nil, "%s#%d", key, seen[key])).String()
		}
		tx := cmd.trade()
		if err := tx.Validate(); err != nil {
			return err
		}
		ledger.Append(tx)
	default:
		return fmt.Errorf("unknown command: %q", identifier.Command)
	}
	return nil
}

func (c declareCmd) security() (Security, error) {
	sec := NewSecurity(c.Security, c.Currency, c.Description)
	if c.Bond != nil {
		sec = NewBond(c.Security, c.Currency, c.Description, BondTerms{
			FaceValue:       M(c.Bond.Face, c.Currency),
			CouponRate:      c.Bond.Coupon,
			FrequencyMonths: c.Bond.Frequency,
			EmissionDate:    c.Bond.Emission,
			MaturityDate:    c.Bond.Maturity,
			Amortization:    Amortization{Mode: c.Bond.Amortization, Checkpoints: c.Bond.Checkpoints},
		})
	}
	if err := sec.Validate(); err != nil {
		return Security{}, fmt.Errorf("declare: %w", err)
	}
	return sec, nil
}

func (c tradeCmd) trade() Trade {
	price := M(c.Price, c.Currency)
	tx := newTrade(c.ID, Buy, c.Date, c.Security, c.Quantity, price, M(c.Commission, c.Currency))
	if c.Command == CmdSell {
		tx.Side = Sell
	}
	tx.Memo = c.Memo
	return tx
}

// EncodeTrade writes a single trade as a JSON line.
func EncodeTrade(w io.Writer, tx Trade) error {
	cmd := CmdBuy
	if tx.Side == Sell {
		cmd = CmdSell
	}
	var o jsonObjectWriter
	o.Append("command", cmd)
	o.Append("id", tx.ID)
	o.Append("date", tx.Date)
	o.Append("security", tx.SecurityID)
	o.Append("quantity", tx.Quantity)
	o.Append("price", tx.Price.Decimal())
	o.Append("commission", tx.Commission.Decimal())
	o.Append("currency", tx.Currency())
	o.Optional("memo", tx.Memo)
	return writeLine(w, &o)
}

// EncodeSecurity writes a security declaration as a JSON line.
func EncodeSecurity(w io.Writer, sec Security) error {
	var o jsonObjectWriter
	o.Append("command", CmdDeclare)
	o.Append("security", sec.ID())
	o.Append("currency", sec.Currency())
	o.Optional("description", sec.Description())
	if terms := sec.Bond(); terms != nil {
		var b jsonObjectWriter
		b.Append("face", terms.FaceValue.Decimal())
		b.Append("coupon", terms.CouponRate)
		b.Append("frequency", terms.FrequencyMonths)
		if !terms.EmissionDate.IsZero() {
			b.Append("emission", terms.EmissionDate)
		}
		b.Append("maturity", terms.MaturityDate)
		b.Append("amortization", terms.Amortization.Mode)
		if len(terms.Amortization.Checkpoints) > 0 {
			b.Append("checkpoints", terms.Amortization.Checkpoints)
		}
		o.Append("bond", &b)
	}
	return writeLine(w, &o)
}

// EncodeLedger writes every declaration, by security id, then every trade in
// ledger order. Encoding a decoded ledger gives back the same bytes.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for sec := range ledger.Securities() {
		if err := EncodeSecurity(w, sec); err != nil {
			return err
		}
	}
	ledger.stableSort()
	for _, tx := range ledger.trades {
		if err := EncodeTrade(w, tx); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, v json.Marshaler) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal ledger line: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write ledger line: %w", err)
	}
	return nil
}
