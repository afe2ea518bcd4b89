package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"TransWatcher/internal/domain/models"
	"TransWatcher/pkg/util"
)

// minRowFields covers ts, open, high, low, close, volume.
const minRowFields = 6

// Normalize converts a raw OKX row into a Candle. It is pure: InsertedAt is left
// for the store to stamp at write time.
func Normalize(symbol string, row models.RawRow) (models.Candle, error) {
	if len(row) < minRowFields {
		return models.Candle{}, models.InputError("normalize",
			fmt.Sprintf("row has %d fields, need at least %d", len(row), minRowFields), models.ErrMalformedRow)
	}

	ts, err := toInt64(row[0])
	if err != nil {
		return models.Candle{}, malformed("timestamp", err)
	}

	var prices [5]float64 // open, high, low, close, volume
	for i := range prices {
		v, err := toFloat(row[i+1])
		if err != nil {
			return models.Candle{}, malformed(fieldNames[i], err)
		}
		prices[i] = v
	}

	volCcy, err := optionalFloat(row, 6)
	if err != nil {
		return models.Candle{}, malformed("volume_currency", err)
	}
	volCcyQuote, err := optionalFloat(row, 7)
	if err != nil {
		return models.Candle{}, malformed("volume_currency_quote", err)
	}

	confirmed := 1
	if len(row) > 8 && !isBlank(row[8]) {
		c, err := toInt64(row[8])
		if err != nil {
			return models.Candle{}, malformed("confirmed", err)
		}
		confirmed = int(c)
	}

	return models.Candle{
		Symbol:              symbol,
		Timestamp:           ts,
		Datetime:            util.MillisToTime(ts),
		Open:                prices[0],
		High:                prices[1],
		Low:                 prices[2],
		Close:               prices[3],
		Volume:              prices[4],
		VolumeCurrency:      volCcy,
		VolumeCurrencyQuote: volCcyQuote,
		Confirmed:           confirmed,
	}, nil
}

var fieldNames = [5]string{"open", "high", "low", "close", "volume"}

func malformed(field string, err error) error {
	return models.InputError("normalize", fmt.Sprintf("bad %s: %v", field, err), models.ErrMalformedRow)
}

func optionalFloat(row models.RawRow, i int) (float64, error) {
	if len(row) <= i || isBlank(row[i]) {
		return 0, nil
	}
	return toFloat(row[i])
}

func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case float64:
		if x != float64(int64(x)) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		return x.Int64()
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
