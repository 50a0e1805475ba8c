// Command jobmirror is a terminal client for the job scheduler. One-shot
// commands query the scheduler API directly; watch keeps a live mirror of
// the job lists over the realtime channel.
package main
