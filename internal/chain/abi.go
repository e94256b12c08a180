package chain

// leaderboardABI is the subset of the leaderboard contract the relay uses
const leaderboardABI = `[
  {"type":"function","name":"games","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[
     {"name":"gameAddress","type":"address"},
     {"name":"image","type":"string"},
     {"name":"name","type":"string"},
     {"name":"url","type":"string"}]},
  {"type":"function","name":"GAME_ROLE","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"hasRole","stateMutability":"view",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"playerDataPerGame","stateMutability":"view",
   "inputs":[{"name":"","type":"address"},{"name":"","type":"address"}],
   "outputs":[{"name":"score","type":"uint256"},{"name":"transactions","type":"uint256"}]},
  {"type":"function","name":"totalScoreOfPlayer","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"updatePlayerData","stateMutability":"nonpayable",
   "inputs":[
     {"name":"player","type":"address"},
     {"name":"scoreAmount","type":"uint256"},
     {"name":"transactionAmount","type":"uint256"}],
   "outputs":[]}
]`
