package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// treeLookup builds a parentLookup from an in-memory parent map. Folders
// absent from the map are treated like dangling references.
func treeLookup(parents map[primitive.ObjectID]*primitive.ObjectID) parentLookup {
	return func(id primitive.ObjectID) (*primitive.ObjectID, error) {
		parent, ok := parents[id]
		if !ok {
			return nil, nil
		}
		return parent, nil
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// root <- a <- b <- c, plus an unrelated sibling.
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()
	sibling := primitive.NewObjectID()
	lookup := treeLookup(map[primitive.ObjectID]*primitive.ObjectID{
		a:       nil,
		b:       &a,
		c:       &b,
		sibling: nil,
	})

	t.Run("Move To Root", func(t *testing.T) {
		cycle, err := wouldCreateCycle(b, nil, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cycle {
			t.Error("Moving to root can never create a cycle")
		}
	})

	t.Run("Move Into Itself", func(t *testing.T) {
		cycle, err := wouldCreateCycle(a, &a, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !cycle {
			t.Error("Expected moving a folder into itself to be a cycle")
		}
	})

	t.Run("Move Into Direct Child", func(t *testing.T) {
		cycle, err := wouldCreateCycle(a, &b, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !cycle {
			t.Error("Expected moving a folder into its child to be a cycle")
		}
	})

	t.Run("Move Into Deep Descendant", func(t *testing.T) {
		cycle, err := wouldCreateCycle(a, &c, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !cycle {
			t.Error("Expected moving a folder into its grandchild to be a cycle")
		}
	})

	t.Run("Move Into Sibling", func(t *testing.T) {
		cycle, err := wouldCreateCycle(b, &sibling, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cycle {
			t.Error("Unrelated destination must not be flagged as a cycle")
		}
	})

	t.Run("Move Child Up", func(t *testing.T) {
		cycle, err := wouldCreateCycle(c, &a, lookup)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cycle {
			t.Error("Moving a descendant toward the root must not be a cycle")
		}
	})

	t.Run("Dangling Parent Terminates Walk", func(t *testing.T) {
		orphan := primitive.NewObjectID()
		ghost := primitive.NewObjectID()
		dangling := treeLookup(map[primitive.ObjectID]*primitive.ObjectID{
			orphan: &ghost,
		})
		cycle, err := wouldCreateCycle(a, &orphan, dangling)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cycle {
			t.Error("A chain ending in a missing folder is not a cycle")
		}
	})

	t.Run("Depth Bound", func(t *testing.T) {
		// A chain longer than maxFolderDepth must error instead of walking
		// forever.
		ids := make([]primitive.ObjectID, maxFolderDepth+2)
		parents := make(map[primitive.ObjectID]*primitive.ObjectID, len(ids))
		for i := range ids {
			ids[i] = primitive.NewObjectID()
		}
		for i := 1; i < len(ids); i++ {
			parents[ids[i]] = &ids[i-1]
		}
		parents[ids[0]] = &ids[len(ids)-1] // close the loop

		target := primitive.NewObjectID()
		_, err := wouldCreateCycle(target, &ids[len(ids)-1], treeLookup(parents))
		if err == nil {
			t.Fatal("Expected an error for a parent chain beyond the depth bound")
		}
	})
}
