package vm

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/rising9719/goevm/types"
)

// bitvec is a bitset, one bit per code byte, marking bytes that are PUSH
// immediate data (as opposed to genuine instructions). A byte is a valid
// JUMPDEST only if it equals JUMPDEST AND its bit is clear here.
type bitvec []byte

const (
	set2BitsMask = uint16(0b11)
	set3BitsMask = uint16(0b111)
	set4BitsMask = uint16(0b1111)
	set5BitsMask = uint16(0b1_1111)
	set6BitsMask = uint16(0b11_1111)
	set7BitsMask = uint16(0b111_1111)
)

func (bits bitvec) set1(pos uint64) {
	bits[pos/8] |= 1 << (pos % 8)
}

func (bits bitvec) setN(flag uint16, pos uint64) {
	a := flag << (pos % 8)
	bits[pos/8] |= byte(a)
	if b := byte(a >> 8); b != 0 {
		bits[pos/8+1] = b
	}
}

// codeSegment reports whether the byte at pos is an instruction opcode
// (true) rather than PUSH immediate data (false).
func (bits bitvec) codeSegment(pos uint64) bool {
	return (bits[pos/8] & (1 << (pos % 8))) == 0
}

// codeBitmap walks code once, marking every byte that follows a PUSH as
// data rather than instruction, so that JUMP/JUMPI destination checks
// never land inside a PUSH immediate.
func codeBitmap(code []byte) bitvec {
	bits := make(bitvec, len(code)/8+1+4)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		if op < PUSH1 || op > PUSH32 {
			pc++
			continue
		}
		numbits := op.PushSize()
		pc++
		switch {
		case numbits >= 8:
			for ; numbits >= 16; numbits -= 16 {
				bits.setN(0xFF, pc)
				bits.setN(0xFF, pc+8)
				pc += 16
			}
			for ; numbits >= 8; numbits -= 8 {
				bits.setN(0xFF, pc)
				pc += 8
			}
		}
		switch numbits {
		case 1:
			bits.set1(pc)
			pc++
		case 2:
			bits.setN(set2BitsMask, pc)
			pc += 2
		case 3:
			bits.setN(set3BitsMask, pc)
			pc += 3
		case 4:
			bits.setN(set4BitsMask, pc)
			pc += 4
		case 5:
			bits.setN(set5BitsMask, pc)
			pc += 5
		case 6:
			bits.setN(set6BitsMask, pc)
			pc += 6
		case 7:
			bits.setN(set7BitsMask, pc)
			pc += 7
		}
	}
	return bits
}

// codeAnalysis is the cached, immutable result of pre-processing a
// contract's code: the JUMPDEST bitmap consulted by JUMP/JUMPI target
// validation. Gas is charged opcode-by-opcode in the interpreter loop
// (including the constant-gas component), so this holds nothing beyond
// the bitmap -- there is no separate block-level gas charge to precompute.
type codeAnalysis struct {
	jumpdests bitvec
}

// jumpdestCache holds the raw bitvec bytes, keyed by code hash, in a
// bounded byte-oriented cache -- fastcache is built for exactly this
// shape (small fixed key, byte-slice value, eviction under memory
// pressure) and avoids re-walking large contract code on every call.
var jumpdestCache = fastcache.New(64 * 1024 * 1024)

// analyze returns the codeAnalysis for codeHash, computing and caching
// its JUMPDEST bitmap if absent.
func analyze(codeHash types.Hash, code []byte) *codeAnalysis {
	if raw, ok := jumpdestCache.HasGet(nil, codeHash.Bytes()); ok {
		return &codeAnalysis{jumpdests: bitvec(raw)}
	}
	jd := codeBitmap(code)
	jumpdestCache.Set(codeHash.Bytes(), jd)
	return &codeAnalysis{jumpdests: jd}
}

// isJumpdest reports whether pc is both within code bounds, equal to
// the JUMPDEST opcode, and not inside PUSH immediate data.
func (a *codeAnalysis) isJumpdest(code []byte, pc uint64) bool {
	if pc >= uint64(len(code)) {
		return false
	}
	if OpCode(code[pc]) != JUMPDEST {
		return false
	}
	return a.jumpdests.codeSegment(pc)
}
