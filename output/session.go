/*
Copyright © 2019 the Terrain authors.
This file is part of Terrain.

Terrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Terrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Terrain.  If not, see <http://www.gnu.org/licenses/>.
*/

package output

// Session holds the output writers of a single simulation run and
// hands out their ID numbers.
type Session struct {
	nextID  int
	writers []Writer
}

// NewSession creates an empty Session whose first writer ID is zero.
func NewSession() *Session { return new(Session) }

// NextID returns a new writer ID that is unique within s.
func (s *Session) NextID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Add adds w to the writers of s. Writers that are already present
// are ignored.
func (s *Session) Add(w Writer) {
	for _, ww := range s.writers {
		if ww == w {
			return
		}
	}
	s.writers = append(s.writers, w)
}

// Writers returns the writers in s in the order they were added.
func (s *Session) Writers() []Writer {
	o := make([]Writer, len(s.writers))
	copy(o, s.writers)
	return o
}
