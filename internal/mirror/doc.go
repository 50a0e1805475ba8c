// Package mirror ties the scheduler gateway, the realtime channel, and the
// local job store into one session facade. A Session keeps a live mirror of
// the backend's job lists: push events fold into the store as they arrive,
// and submissions trigger a full refetch so the mirror converges on the
// backend's view.
package mirror
