// Package sim runs trials of a model over a graph.
//
// A [Trial] couples one graph with one model instance and a step counter.
// It is driven through [Trial.ProcessSteps], which steps the model until the
// trial reaches its pause ceiling, its stop ceiling or converges:
//
//	Ready --ProcessSteps--> Running --> Finishing --> Finished
//	                           |
//	                           +------> Ready (paused; pauseAt resets to stopAt)
//
// A [Scheduler] runs trials on a bounded number of workers, queueing the rest
// in FIFO order. Control commands (pause, stop, kill) take effect between
// model steps; a step in progress is never interrupted. An [Experiment]
// groups trials sharing one configuration and a seed offset per trial.
//
//	sched := sim.NewScheduler(sim.Options{Threads: 4})
//	exp, err := sim.NewExperiment(builtin.Default(), sched, cfg)
//	if err != nil {
//	    return err
//	}
//	exp.Play()
//	err = sched.Wait(ctx)
package sim
