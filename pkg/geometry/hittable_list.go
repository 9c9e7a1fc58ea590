package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// HittableList is an ordered collection of shapes that resolves the nearest intersection.
// It must not be modified while a render is in progress.
type HittableList struct {
	objects []Shape
	bbox    core.AABB
}

// NewHittableList creates a list holding the given shapes
func NewHittableList(shapes ...Shape) *HittableList {
	list := &HittableList{bbox: core.EmptyAABB}
	for _, shape := range shapes {
		list.Add(shape)
	}
	return list
}

// Add appends a shape
func (l *HittableList) Add(shape Shape) {
	l.objects = append(l.objects, shape)
	l.bbox = l.bbox.Union(shape.BoundingBox())
}

// Len returns the number of shapes
func (l *HittableList) Len() int {
	return len(l.objects)
}

// Objects returns the shapes in insertion order
func (l *HittableList) Objects() []Shape {
	return l.objects
}

// Hit returns the nearest intersection among all shapes within rayT
func (l *HittableList) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := rayT.Max

	for _, shape := range l.objects {
		if hit, isHit := shape.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the box enclosing every shape
func (l *HittableList) BoundingBox() core.AABB {
	return l.bbox
}
