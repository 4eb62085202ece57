// Command maketrie builds a static trie from sorted dictionary lines.
//
// Input on stdin, one key per line, ascending lexicographic order:
//
//	word <TAB> frequency <TAB> old-term-id
//
// The output directory receives trie.tpk (the checksummed trie
// container with bloom filter), tidmap.bin (old term id -> new term id,
// big-endian uint32 per entry) and groups.bin (term id -> group id,
// big-endian uint16 per entry).
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TomTonic/triepack"
)

func main() {
	var (
		numWords       = flag.Int("words", 0, "number of input words")
		numOccurrences = flag.Int("occurrences", 0, "total frequency mass of the input")
		numGroups      = flag.Int("groups", 1, "number of frequency groups to assign")
		outDir         = flag.String("out", "", "output directory")
	)
	flag.Parse()
	if *numWords <= 0 || *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: maketrie -words N -occurrences N -groups N -out DIR < INPUT")
		os.Exit(1)
	}
	if err := run(*numWords, *numOccurrences, *numGroups, *outDir); err != nil {
		fmt.Fprintln(os.Stderr, "maketrie:", err)
		os.Exit(1)
	}
}

func run(numWords, numOccurrences, numGroups int, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	grouper := triepack.NewGrouper(numWords, numOccurrences, numGroups)
	builder := triepack.NewBuilder(
		triepack.WithBloomFilter(uint(numWords)),
		triepack.WithGrouper(grouper),
	)
	tidmap := make([]uint32, numWords+1)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		word, freq, oldID, err := parseLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		id, err := builder.Add(word, freq)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if int(oldID) < len(tidmap) {
			tidmap[oldID] = id
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	trie, err := builder.Finish()
	if err != nil {
		return err
	}
	if err := trie.Save(filepath.Join(outDir, "trie.tpk")); err != nil {
		return err
	}
	if err := writeUint32s(filepath.Join(outDir, "tidmap.bin"), tidmap); err != nil {
		return err
	}
	if err := writeUint16s(filepath.Join(outDir, "groups.bin"), grouper.Groups()); err != nil {
		return err
	}

	fmt.Printf("%d terms, %d groups, %d bytes\n",
		trie.Count(), grouper.NumGroups(), len(trie.Bytes()))
	return nil
}

func parseLine(line string) (triepack.Key, uint32, uint32, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return nil, 0, 0, fmt.Errorf("expected 3 tab-separated fields, got %d", len(parts))
	}
	freq, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("bad frequency %q: %w", parts[1], err)
	}
	oldID, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("bad term id %q: %w", parts[2], err)
	}
	key := triepack.FromString(parts[0]).WithSentinel(triepack.Sentinel)
	return key, uint32(freq), uint32(oldID), nil
}

func writeUint32s(path string, xs []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.BigEndian, xs); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeUint16s(path string, xs []uint16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.BigEndian, xs); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
