// Package csvfile reads and writes the plain comma separated inventory format:
//
//	name,category,quantity,unit,YYYY-MM-DD
//
// Fields are never quoted, so a comma inside a name or category splits the row.
package csvfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"inventory-tracker/internal/domain/entity"
	domainErrors "inventory-tracker/internal/domain/errors"
)

// Header is the optional first line written by Export.
const Header = "name,category,quantity,unit,expiryDate"

const fieldCount = 5

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Import opens path and decodes it with Decode.
func (r *Repository) Import(ctx context.Context, path string, add func(*entity.Item)) ([]*domainErrors.LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(ctx, f, add)
}

// Export creates or truncates path and writes items with Encode.
func (r *Repository) Export(ctx context.Context, path string, items []*entity.Item, header bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(ctx, f, items, header); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decode skips the first line, then parses each remaining line and passes the item to add.
// Bad lines are reported with their 1-based line number and skipped; lines have no length limit.
// ctx is only checked before the first line. The returned error is only set when reading
// fails; rows added before that stay added.
func Decode(ctx context.Context, r io.Reader, add func(*entity.Item)) ([]*domainErrors.LineError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lineErrs []*domainErrors.LineError

	br := bufio.NewReader(r)
	lineNumber := 0
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			lineNumber++
			if lineNumber > 1 {
				item, err := parseLine(trimEOL(line))
				if err != nil {
					lineErrs = append(lineErrs, domainErrors.NewLineError(lineNumber, err))
				} else {
					add(item)
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return lineErrs, nil
		}
		if readErr != nil {
			return lineErrs, fmt.Errorf("read line %d: %w", lineNumber+1, readErr)
		}
	}
}

func trimEOL(line string) string {
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}

// Encode writes one line per item.
func Encode(ctx context.Context, w io.Writer, items []*entity.Item, header bool) error {
	bw := bufio.NewWriter(w)
	if header {
		if _, err := bw.WriteString(Header + "\n"); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := bw.WriteString(FormatLine(it) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatLine renders an item as a single unquoted row.
func FormatLine(it *entity.Item) string {
	return strings.Join([]string{
		it.Name,
		it.Category,
		entity.FormatQuantity(it.Quantity),
		it.Unit,
		entity.FormatDate(it.ExpiryDate),
	}, ",")
}

func parseLine(line string) (*entity.Item, error) {
	parts := splitFields(line)
	if len(parts) < fieldCount {
		return nil, domainErrors.ErrMalformedRow
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, domainErrors.ErrParse
	}
	expiry, err := entity.ParseDate(strings.TrimSpace(parts[4]))
	if err != nil {
		return nil, domainErrors.ErrParse
	}

	return entity.NewItem(
		strings.TrimSpace(parts[0]),
		strings.TrimSpace(parts[1]),
		quantity,
		strings.TrimSpace(parts[3]),
		expiry,
	), nil
}

// splitFields splits on every comma and drops trailing empty fields,
// so "a,b,c,d," has four fields.
func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
