package async

// Run calls f in a goroutine and delivers its result on the returned channel. The channel is buffered so the goroutine
// exits even if nobody receives.
func Run[T any](f func() T) <-chan T {
	c := make(chan T, 1)
	go func() {
		c <- f()
	}()
	return c
}
