/*
 * doc.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package structset packs batches of periodic atomic structures (alloy configurations, ordered
supercells, special quasirandom structures) into flat arrays that can be stored and exchanged
without per-structure metadata, and decodes them back.

All the structures in a collection are cut into frames of the same number of atoms, the
greatest common divisor of the atom counts of all the structures. A structure with n atoms
spans n/FrameSize consecutive frames. The collection keeps, for each structure, the number
of frames it uses (NFrames) and the exclusive prefix sum of those numbers (CNFrames), so any
structure can be recovered in constant time by its index.

	**Capabilities**

    Encodes a batch of structures into a collection, and decodes any structure by index.

    Labels collections with one energy per structure.

    Stores collections in a provenance store (see the provenance subpackage), after which
	they are frozen. Frozen collections can be cloned into new, mutable, ones.

    Reads/writes extended XYZ files, and (raw subpackage) the plain-text raw exchange format.

    Runs the cluster-expansion tools that produce and consume collections
	(enumeration, SQS generation with the ATAT mcsqs program, training), see
	the calc and workflow subpackages.

Structures are ordered as given. Atoms inside each structure keep their order, so
consecutive groups of FrameSize atoms are expected to be meaningful units, for
instance repeated primitive cells. This is not checked.
*/
package structset
