package crdt

type searchMode int

const (
	// searchAt returns the index where a missing item would be inserted.
	searchAt searchMode = iota
	// searchBefore returns the index of the item preceding a missing item.
	searchBefore
)

// binarySearch returns the index of item in list if present. Otherwise the
// result depends on mode.
func binarySearch[T, U any](list []U, item T, compare func(T, U) int, mode searchMode) int {
	start, end := 0, len(list)
	for start < end {
		mid := (start + end) / 2
		c := compare(item, list[mid])
		switch {
		case c < 0:
			end = mid
		case c > 0:
			start = mid + 1
		default:
			return mid
		}
	}

	if mode == searchBefore {
		return start - 1
	}
	return start
}

// compareCharWithLine compares a character with the first character of a line.
func compareCharWithLine(char Char, line []Char) int {
	// Only the last line can be empty, since all others end with a newline.
	if len(line) == 0 {
		return char.Compare(EndOfFile())
	}
	return char.Compare(line[0])
}

func compareChars(a, b Char) int {
	return a.Compare(b)
}

// findPosition returns the line and column of char if present, or the slot
// it would occupy if inserted.
func (doc *Document) findPosition(char Char) (int, int, bool) {
	// Anything before the first character still belongs to line 0.
	lineIndex := max(0, binarySearch(doc.lines, char, compareCharWithLine, searchBefore))
	line := doc.lines[lineIndex]

	ch := binarySearch(line, char, compareChars, searchAt)
	if ch < len(line) {
		return lineIndex, ch, line[ch].Compare(char) == 0
	}

	// Every line but the last ends with a newline, so a character sorting
	// after it goes to the start of the next line.
	if lineIndex != len(doc.lines)-1 {
		return lineIndex + 1, 0, false
	}
	return lineIndex, ch, false
}
