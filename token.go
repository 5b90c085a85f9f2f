/*
Copyright © 2024 the WISS authors.
This file is part of WISS.

WISS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

WISS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with WISS.  If not, see <http://www.gnu.org/licenses/>.
*/

package wiss

import "math/rand"

// Token is an opaque capability handed out by SimXChange. It encodes a
// dynamic variable's index and whether the holder may write to it. A token
// is not trivially forgeable: decoding it requires the per-store random
// offset chosen at construction (Design Notes §9), and an out-of-range
// index decodes to InvalidToken rather than panicking, so a token minted by
// a different store is safely rejected instead of aliasing an unrelated
// variable.
type Token int64

// InvalidToken is the sentinel value returned for a token that cannot be
// resolved to a variable in the issuing store.
const InvalidToken Token = 0

// tokenCodec encodes/decodes tokens for one SimXChange instance. offset is a
// per-store random negative bias chosen once at construction.
type tokenCodec struct {
	offset int64
}

func newTokenCodec() *tokenCodec {
	// A negative, non-zero bias so encoded tokens for index 0 do not
	// collide with InvalidToken (0) and are not guessable across stores.
	offset := -(rand.Int63n(1<<62) + 1)
	return &tokenCodec{offset: offset}
}

// encode packs a variable index and write-capability bit into a token.
// writeCapable is stored in the low bit; the index occupies the rest.
func (c *tokenCodec) encode(index int, writeCapable bool) Token {
	bit := int64(0)
	if writeCapable {
		bit = 1
	}
	raw := int64(index)*2 + bit
	return Token(raw + c.offset)
}

// decode unpacks a token into its variable index and write-capability bit.
// It returns ok == false for the sentinel InvalidToken or any value that
// does not decode to a non-negative index.
func (c *tokenCodec) decode(t Token) (index int, writeCapable bool, ok bool) {
	if t == InvalidToken {
		return 0, false, false
	}
	raw := int64(t) - c.offset
	if raw < 0 {
		return 0, false, false
	}
	return int(raw / 2), raw%2 == 1, true
}
