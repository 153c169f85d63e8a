package postgres

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE graphs (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				description TEXT,
				definition JSONB NOT NULL,
				entry_point VARCHAR(255) NOT NULL,
				version INT NOT NULL DEFAULT 1,
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_graphs_is_active ON graphs(is_active);

			CREATE TABLE runs (
				id UUID PRIMARY KEY,
				run_id UUID NOT NULL UNIQUE,
				graph_id UUID NOT NULL REFERENCES graphs(id),
				status VARCHAR(20) NOT NULL,
				initial_state JSONB,
				current_state JSONB,
				final_state JSONB,
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				total_iterations INT,
				total_execution_time_ms BIGINT,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_runs_status_created_at ON runs(status, created_at);
			CREATE INDEX idx_runs_graph_id_status ON runs(graph_id, status);

			CREATE TABLE execution_logs (
				id UUID PRIMARY KEY,
				run_id UUID NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
				node_name VARCHAR(255) NOT NULL,
				status VARCHAR(20) NOT NULL,
				iteration INT NOT NULL,
				execution_time_ms BIGINT,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
				error_message TEXT
			);

			CREATE INDEX idx_execution_logs_run_id_timestamp ON execution_logs(run_id, timestamp);
		`,
	}
}
