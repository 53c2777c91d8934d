// Package neat implements NeuroEvolution of Augmenting Topologies (NEAT): a
// genetic algorithm that evolves both the weights and the structure of
// feed-forward neural networks while speciation protects new topologies.
//
// The package follows the paper by Kenneth O. Stanley and Risto Miikkulainen
// and the neat-python reference implementation
// (https://github.com/CodeReclaimers/neat-python). Every random decision is
// drawn from a caller-supplied *rand.Rand, so a seeded generator reproduces a
// run exactly.
//
// Basic usage:
//
//	params := neat.DefaultParameters()
//	if err := params.ApplyOverrides([]string{"PopulationSize=50"}); err != nil {
//		log.Fatal(err)
//	}
//	rng := rand.New(rand.NewSource(1))
//
//	seed, err := neat.NewGenome(0, 2, 0, 1, true,
//		neat.UnsignedSigmoid, neat.UnsignedSigmoid, neat.SeedPerceptron, params, rng)
//	if err != nil {
//		log.Fatal(err)
//	}
//	pop, err := neat.NewPopulation(seed, params, true, params.CompatibilityThreshold, rng)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for i := 0; i < 100; i++ {
//		for _, g := range pop.Genomes() {
//			net, err := nn.New(g)
//			if err != nil {
//				log.Fatal(err)
//			}
//			g.SetFitness(score(net))
//		}
//		if err := pop.Epoch(); err != nil {
//			log.Fatal(err)
//		}
//	}
package neat
