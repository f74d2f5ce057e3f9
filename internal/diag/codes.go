package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Структурные находки сканера/детектора
	BlkInfo                 Code = 1000
	BlkUnclosed             Code = 1001
	BlkMisnestedSibling     Code = 1002
	BlkStructuralAmbiguity  Code = 1003
	BlkStrayClose           Code = 1004
	BlkImbalanceAfterRepair Code = 1005
	BlkPatchConflict        Code = 1006

	// Переименования полей
	RenInfo    Code = 2000
	RenApplied Code = 2001

	// Ввод-вывод
	IOInfo         Code = 4000
	IOFileNotFound Code = 4001
	IOFailure      Code = 4002

	// Конфигурация
	CfgInfo         Code = 5000
	CfgInvalidToken Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	BlkInfo:                 "Structure information",
	BlkUnclosed:             "Block left unclosed before a sibling or ancestor",
	BlkMisnestedSibling:     "Sibling subtree nested one level too deep",
	BlkStructuralAmbiguity:  "Structural ambiguity, manual review required",
	BlkStrayClose:           "Close line does not match any open block",
	BlkImbalanceAfterRepair: "Repair did not restore balance",
	BlkPatchConflict:        "Planned operations conflict",
	RenInfo:                 "Rename information",
	RenApplied:              "Field path renamed",
	IOInfo:                  "I/O information",
	IOFileNotFound:          "File not found",
	IOFailure:               "I/O failure",
	CfgInfo:                 "Configuration information",
	CfgInvalidToken:         "Invalid block token configuration",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("BLK%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("REN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
