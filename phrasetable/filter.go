package phrasetable

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/teatak/smt/util"
)

// CollectPhrases returns every n-gram up to maxLen of the tokenized lines
// of inputPath.
func CollectPhrases(inputPath string, maxLen int) (map[string]struct{}, error) {
	r, err := util.OpenReader(inputPath)
	if err != nil {
		return nil, err
	}
	defer util.CloseWithErr(r, "filter input")

	phrases := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		words := util.Tokenize(scanner.Text())
		n := len(words)
		for i := 0; i < n; i++ {
			for k := 1; k <= maxLen && i+k <= n; k++ {
				phrases[strings.Join(words[i:i+k], " ")] = struct{}{}
			}
		}
	}
	return phrases, errors.Wrapf(scanner.Err(), "read %s", inputPath)
}

// Filter copies the entries of tablePath whose source phrase occurs in the
// input set to outputPath and returns the number of kept and seen entries.
// Either path may be compressed.
func Filter(inputPath, tablePath, outputPath string, maxLen int) (kept, seen int, err error) {
	phrases, err := CollectPhrases(inputPath, maxLen)
	if err != nil {
		return 0, 0, err
	}

	in, err := util.OpenReader(tablePath)
	if err != nil {
		return 0, 0, err
	}
	defer util.CloseWithErr(in, "phrase table")

	out, err := util.CreateWriter(outputPath)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "close %s", outputPath)
		}
	}()
	writer := bufio.NewWriter(out)

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, Separator)
		if idx < 0 {
			continue
		}
		seen++
		source := strings.Join(util.Tokenize(line[:idx]), " ")
		if _, ok := phrases[source]; !ok {
			continue
		}
		fmt.Fprintln(writer, line)
		kept++
	}
	if err := scanner.Err(); err != nil {
		return kept, seen, errors.Wrapf(err, "read %s", tablePath)
	}
	return kept, seen, writer.Flush()
}
