// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package layout

import "testing"

func TestPlanPrimitive(t *testing.T) {
	p := NewPlanner()
	slots := p.Plan("n", PrimitiveType("UInt32"))
	if len(slots) != 1 || slots[0].Role != RoleValue || slots[0].PhysicalName != "n" {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestPlanNullable(t *testing.T) {
	p := NewPlanner()
	slots := p.Plan("n", NullableType(PrimitiveType("UInt32")))
	if len(slots) != 2 {
		t.Fatalf("want 2 slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Role != RoleNull || slots[0].BinSuffix != ".null" || slots[0].MrkSuffix != ".null_mrk" {
		t.Fatalf("unexpected null slot: %+v", slots[0])
	}
	if slots[1].Role != RoleValue {
		t.Fatalf("unexpected value slot: %+v", slots[1])
	}
}

func TestPlanArraySharingAcrossSiblings(t *testing.T) {
	p := NewPlanner()
	xSlots := p.Plan("t.x", ArrayType(PrimitiveType("UInt8")))
	ySlots := p.Plan("t.y", ArrayType(PrimitiveType("UInt8")))

	if xSlots[0].Shared {
		t.Fatalf("first sibling's array-sizes slot should not be shared: %+v", xSlots[0])
	}
	if !ySlots[0].Shared {
		t.Fatalf("second sibling's array-sizes slot should be shared: %+v", ySlots[0])
	}
	if xSlots[0].PhysicalName != ySlots[0].PhysicalName {
		t.Fatalf("siblings disagree on array-sizes physical name: %q vs %q", xSlots[0].PhysicalName, ySlots[0].PhysicalName)
	}
	want := "t%size0"
	if xSlots[0].PhysicalName != want {
		t.Fatalf("array-sizes physical name = %q, want %q", xSlots[0].PhysicalName, want)
	}
}

func TestPlanAppendNamingOverride(t *testing.T) {
	p := NewPlanner()
	slots := p.PlanAppend("t.x", ArrayType(PrimitiveType("UInt8")))
	// append naming roots the sizes stream at the logical name itself,
	// not at NestedRoot("t.x") == "t".
	want := Escape("t.x") + "%size0"
	if slots[0].PhysicalName != want {
		t.Fatalf("append-naming sizes slot = %q, want %q", slots[0].PhysicalName, want)
	}
}

func TestClaimArraySizeIndependentOfNaming(t *testing.T) {
	p := NewPlanner()
	// Regardless of which physical root a caller chooses to name the
	// stream after, sharing is keyed on the true nested root.
	if p.ClaimArraySize("t", 0, "t.x") {
		t.Fatal("first claim should not report shared")
	}
	if p.ClaimArraySize("t", 0, "t.x") {
		t.Fatal("the same owner re-claiming across blocks should not report shared")
	}
	if !p.ClaimArraySize("t", 0, "t.y") {
		t.Fatal("a different owner claiming the same (root, level) should report shared")
	}
	if p.ClaimArraySize("t", 1, "t.x") {
		t.Fatal("a different level should not be pre-claimed")
	}
}

func TestPlanArraySharingPersistsAcrossBlocks(t *testing.T) {
	p := NewPlanner()
	arr := ArrayType(PrimitiveType("UInt8"))

	// Block 1: t.x claims first, t.y is the sibling.
	xSlots1 := p.Plan("t.x", arr)
	ySlots1 := p.Plan("t.y", arr)
	if xSlots1[0].Shared {
		t.Fatalf("block 1: owner slot should not be shared: %+v", xSlots1[0])
	}
	if !ySlots1[0].Shared {
		t.Fatalf("block 1: sibling slot should be shared: %+v", ySlots1[0])
	}

	// Block 2: the same two columns plan again. The owner must still
	// report unshared, and the sibling must still report shared — a
	// plain "already claimed by someone" boolean would incorrectly
	// flip the owner to shared here.
	xSlots2 := p.Plan("t.x", arr)
	ySlots2 := p.Plan("t.y", arr)
	if xSlots2[0].Shared {
		t.Fatalf("block 2: owner slot should still not be shared: %+v", xSlots2[0])
	}
	if !ySlots2[0].Shared {
		t.Fatalf("block 2: sibling slot should still be shared: %+v", ySlots2[0])
	}
}
