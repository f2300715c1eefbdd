package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разбор строк
	LexInfo              Code = 1000
	LexUnparseableLine   Code = 1001
	LexBadTimestamp      Code = 1002
	LexUnknownTracer     Code = 1003
	LexLineBeforeStamp   Code = 1004
	LexSwappedCallReturn Code = 1005

	// Фазы и колбэки
	PhaseInfo             Code = 2000
	PhaseMissing          Code = 2001
	PhaseOpenEnded        Code = 2002
	CallbackNoReturn      Code = 2003
	CallbackUnknownReturn Code = 2004
	PhaseModeSwitched     Code = 2005
	PhaseNoInitcallData   Code = 2006
	PhaseTimelineExpanded Code = 2007
	PhaseRunDropped       Code = 2008

	// Граф вызовов
	GraphInfo         Code = 3000
	GraphOverflow     Code = 3001
	GraphUnderflow    Code = 3002
	GraphUnbalanced   Code = 3003
	GraphUnterminated Code = 3004

	// Корреляция
	CorrInfo             Code = 4000
	CorrNoDevice         Code = 4001
	CorrEventUnpaired    Code = 4002
	CorrEventOutsideCall Code = 4003

	// Ввод-вывод
	IOLoadFileError Code = 5001
	IOCacheError    Code = 5002
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexInfo:               "Line information",
	LexUnparseableLine:    "Unrecognized log line",
	LexBadTimestamp:       "Invalid timestamp",
	LexUnknownTracer:      "Unsupported tracer",
	LexLineBeforeStamp:    "Data before the first run stamp",
	LexSwappedCallReturn:  "Swapped call/return lines",
	PhaseInfo:             "Phase information",
	PhaseMissing:          "Missing phase",
	PhaseOpenEnded:        "Phase without end marker",
	CallbackNoReturn:      "Callback didn't return",
	CallbackUnknownReturn: "Return without call",
	PhaseModeSwitched:     "Suspend mode changed",
	PhaseNoInitcallData:   "No initcall data",
	PhaseTimelineExpanded: "Timeline expanded",
	PhaseRunDropped:       "Run dropped",
	GraphInfo:             "Call graph information",
	GraphOverflow:         "Call graph overflow",
	GraphUnderflow:        "Call graph underflow",
	GraphUnbalanced:       "Call graph sanity check failed",
	GraphUnterminated:     "Call graph never closed",
	CorrInfo:              "Correlation information",
	CorrNoDevice:          "No matching device",
	CorrEventUnpaired:     "Trace event without end",
	CorrEventOutsideCall:  "Trace event outside device calls",
	IOLoadFileError:       "I/O error",
	IOCacheError:          "Cache error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PHS%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CGR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("COR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
