// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package queue implements the FIFO packet queue used by every hop of the
// simulator: a flow's network queue, the bottleneck queue, and the loss
// sink are all a queue.FIFO.
//
// Nodes are kept in a slice-backed arena and addressed by small integer
// handles rather than pointers, so the queue never exposes aliasing back
// pointers between packets (see simulation/packet.c in the original
// implementation for the intrusive-list shape this mirrors).
package queue

// handle addresses a node in a FIFO's internal arena. The zero handle is
// reserved to mean "no node".
type handle int32

const nilHandle handle = 0

type node[T any] struct {
	val  T
	next handle
	live bool
}

// FIFO is an ordered, O(1) enqueue/dequeue/peek/length queue of values of
// type T. The zero value is not usable; use New.
type FIFO[T any] struct {
	nodes      []node[T]
	free       handle
	head, tail handle
	length     int
}

// New returns an empty FIFO.
func New[T any]() *FIFO[T] {
	return &FIFO[T]{nodes: make([]node[T], 1)} // index 0 reserved as nilHandle
}

// Enqueue appends v at the tail of the queue.
func (q *FIFO[T]) Enqueue(v T) {
	h := q.alloc(v)
	if q.tail == nilHandle {
		q.head = h
	} else {
		q.nodes[q.tail].next = h
	}
	q.tail = h
	q.length++
}

// Dequeue removes and returns the value at the head of the queue.
func (q *FIFO[T]) Dequeue() (v T, ok bool) {
	if q.head == nilHandle {
		return v, false
	}
	h := q.head
	n := &q.nodes[h]
	v, ok = n.val, true
	q.head = n.next
	if q.head == nilHandle {
		q.tail = nilHandle
	}
	q.free_(h)
	q.length--
	return
}

// Peek returns the value at the head of the queue without removing it.
func (q *FIFO[T]) Peek() (v T, ok bool) {
	if q.head == nilHandle {
		return v, false
	}
	return q.nodes[q.head].val, true
}

// Len returns the number of values currently queued.
func (q *FIFO[T]) Len() int {
	return q.length
}

// alloc takes a node from the free list, or grows the arena.
func (q *FIFO[T]) alloc(v T) handle {
	if q.free != nilHandle {
		h := q.free
		n := &q.nodes[h]
		q.free = n.next
		*n = node[T]{val: v, next: nilHandle, live: true}
		return h
	}
	q.nodes = append(q.nodes, node[T]{val: v, next: nilHandle, live: true})
	return handle(len(q.nodes) - 1)
}

// free_ returns a node to the free list, clearing its value so it isn't
// held live by the arena after release.
func (q *FIFO[T]) free_(h handle) {
	n := &q.nodes[h]
	if !n.live {
		panic("queue: double free")
	}
	var zero T
	*n = node[T]{val: zero, next: q.free, live: false}
	q.free = h
}
