package plinkbed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Mask selects samples by position. A train mask and its test mask are
// complements.
type Mask []bool

// Count is the number of selected samples.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Not returns the complement of m.
func (m Mask) Not() Mask {
	out := make(Mask, len(m))
	for i, v := range m {
		out[i] = !v
	}
	return out
}

// AllSamples selects all n samples.
func AllSamples(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// Assignment holds the fold id of each sample.
type Assignment []int

// NFolds is one more than the largest fold id.
func (a Assignment) NFolds() int {
	k := 0
	for _, f := range a {
		if f+1 > k {
			k = f + 1
		}
	}
	return k
}

// AssignFolds draws an independent uniform value per sample and scales it to
// a fold id in [0, k). Fold sizes are only approximately equal and a fold can
// be empty for small n. Seed rng to reproduce an assignment.
func AssignFolds(rng *rand.Rand, n, k int) (Assignment, error) {
	if n < 1 {
		return nil, configErrorf("cannot assign folds to %d samples", n)
	}
	if k < 1 {
		return nil, configErrorf("number of folds must be at least 1, got %d", k)
	}

	a := make(Assignment, n)
	for i := range a {
		f := int(rng.Float64() * float64(k))
		if f >= k {
			f = k - 1
		}
		a[i] = f
	}
	return a, nil
}

// SelectFold holds out the samples in fold: test[i] is true exactly when
// a[i] == fold, and train is its complement. A fold nobody was assigned to
// gives an empty test mask.
func SelectFold(a Assignment, fold int) (train, test Mask, err error) {
	if fold < 0 {
		return nil, nil, configErrorf("fold %d requested; fold ids start at 0", fold)
	}

	test = make(Mask, len(a))
	for i, f := range a {
		test[i] = f == fold
	}
	return test.Not(), test, nil
}

// FoldFileName is the file an assignment for repetition rep is saved to.
func FoldFileName(rep int) string {
	return fmt.Sprintf("folds_%d.txt", rep)
}

// WriteAssignment writes one fold id per line.
func WriteAssignment(w io.Writer, a Assignment) error {
	bw := bufio.NewWriter(w)
	for _, f := range a {
		bw.WriteString(strconv.Itoa(f))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return ioError(err)
	}
	return nil
}

// SaveAssignment writes a to FoldFileName(rep) inside dir.
func SaveAssignment(dir string, rep int, a Assignment) (string, error) {
	path := filepath.Join(dir, FoldFileName(rep))
	f, err := os.Create(path)
	if err != nil {
		return "", ioError(err)
	}
	if err := WriteAssignment(f, a); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", ioError(err)
	}
	return path, nil
}

// ReadAssignment reads a file written by WriteAssignment. Values may be
// written as floats ("1.0"), as long as they are whole numbers.
func ReadAssignment(ctx context.Context, path string) (Assignment, error) {
	r, err := openText(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var a Assignment
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v < 0 || v != float64(int(v)) {
			return nil, dataErrorf("%s line %d: %q is not a fold id", path, line, text)
		}
		a = append(a, int(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError(err)
	}

	return a, nil
}
